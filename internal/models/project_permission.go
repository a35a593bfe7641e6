package models

import (
	"time"

	"github.com/taskhive/taskhive/internal/authz"
)

// ProjectPermission is a per-(project,user) permission grant overriding or
// extending the user's authority within one project. The compound unique
// index backs the at-most-one-grant-per-pair invariant, but callers must
// still use find-then-upsert, never blind insert. Rows are hard-deleted so a
// revoked pair can be granted again without tripping the unique index.
type ProjectPermission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project     *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID      uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Permissions string    `gorm:"size:1000" json:"permissions"` // comma-joined tokens
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProjectPermission) TableName() string { return "project_permissions" }

// PermissionSet decodes the stored token list.
func (p *ProjectPermission) PermissionSet() (authz.Set, error) {
	return authz.DecodeSet(p.Permissions)
}

// SetPermissions stores the given set as a comma-joined token list.
func (p *ProjectPermission) SetPermissions(set authz.Set) {
	p.Permissions = set.Encode()
}
