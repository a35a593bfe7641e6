package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

type CustomFieldService struct {
	db *gorm.DB
}

func NewCustomFieldService(db *gorm.DB) *CustomFieldService {
	return &CustomFieldService{db: db}
}

type CreateCustomFieldRequest struct {
	Name      string   `json:"name" binding:"required"`
	FieldType string   `json:"field_type" binding:"required,oneof=text number date select"`
	Options   []string `json:"options"`
	Required  bool     `json:"required"`
}

type UpdateCustomFieldRequest struct {
	Name     string   `json:"name"`
	Options  []string `json:"options"`
	Required *bool    `json:"required"`
}

// ListByProject returns all custom field definitions of a project
func (s *CustomFieldService) ListByProject(projectID uint) ([]models.CustomField, error) {
	var fields []models.CustomField
	if err := s.db.Where("project_id = ?", projectID).Order("id ASC").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// Create defines a new custom field on a project. Select fields need at
// least one option.
func (s *CustomFieldService) Create(projectID uint, req *CreateCustomFieldRequest) (*models.CustomField, error) {
	if req.FieldType == models.FieldTypeSelect && len(req.Options) == 0 {
		return nil, errors.New("select fields need at least one option")
	}

	var count int64
	s.db.Model(&models.CustomField{}).
		Where("project_id = ? AND name = ?", projectID, req.Name).
		Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("field %q already exists in this project", req.Name)
	}

	field := models.CustomField{
		ProjectID: projectID,
		Name:      req.Name,
		FieldType: req.FieldType,
		Options:   strings.Join(req.Options, ","),
		Required:  req.Required,
	}
	if err := s.db.Create(&field).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// Update changes a field's name, options or required flag. The field type is
// immutable; existing values would silently stop parsing otherwise.
func (s *CustomFieldService) Update(projectID, id uint, req *UpdateCustomFieldRequest) (*models.CustomField, error) {
	var field models.CustomField
	if err := s.db.Where("project_id = ?", projectID).First(&field, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Options != nil {
		if field.FieldType == models.FieldTypeSelect && len(req.Options) == 0 {
			return nil, errors.New("select fields need at least one option")
		}
		updates["options"] = strings.Join(req.Options, ",")
	}
	if req.Required != nil {
		updates["required"] = *req.Required
	}

	if err := s.db.Model(&field).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// Delete removes a custom field definition
func (s *CustomFieldService) Delete(projectID, id uint) error {
	result := s.db.Where("project_id = ?", projectID).Delete(&models.CustomField{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("custom field not found")
	}
	return nil
}
