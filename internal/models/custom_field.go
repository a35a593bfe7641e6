package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeDate   = "date"
	FieldTypeSelect = "select"
)

// CustomField is a per-project task attribute definition.
type CustomField struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	FieldType string         `gorm:"size:20;not null" json:"field_type"` // text, number, date, select
	Options   string         `gorm:"size:1000" json:"options"`           // comma-joined choices for select fields
	Required  bool           `gorm:"default:false" json:"required"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CustomField) TableName() string { return "custom_fields" }
