package models

import (
	"time"

	"github.com/taskhive/taskhive/internal/authz"
	"gorm.io/gorm"
)

// Role is a named bundle of global permission tokens assignable to users.
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Permissions string         `gorm:"size:1000" json:"permissions"`    // comma-joined tokens: view_tasks,comment,...
	IsSystem    bool           `gorm:"default:false" json:"is_system"` // System roles cannot be deleted
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Role) TableName() string { return "roles" }

// PermissionSet decodes the stored token list. A decode failure means the
// row is corrupted and is surfaced, not swallowed.
func (r *Role) PermissionSet() (authz.Set, error) {
	return authz.DecodeSet(r.Permissions)
}

// SetPermissions stores the given set as a comma-joined token list.
func (r *Role) SetPermissions(set authz.Set) {
	r.Permissions = set.Encode()
}
