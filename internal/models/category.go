package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a per-project task grouping label.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Color     string         `gorm:"size:20" json:"color"` // hex, e.g. #1f77b4
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string { return "categories" }
