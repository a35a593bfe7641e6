package services

import (
	"errors"
	"fmt"

	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ListByProject returns all categories of a project
func (s *CategoryService) ListByProject(projectID uint) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Where("project_id = ?", projectID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create creates a category within a project. Names are unique per project.
func (s *CategoryService) Create(projectID uint, req *CreateCategoryRequest) (*models.Category, error) {
	var count int64
	s.db.Model(&models.Category{}).
		Where("project_id = ? AND name = ?", projectID, req.Name).
		Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("category %q already exists in this project", req.Name)
	}

	category := models.Category{
		ProjectID: projectID,
		Name:      req.Name,
		Color:     req.Color,
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Update renames or recolors a category
func (s *CategoryService) Update(projectID, id uint, req *UpdateCategoryRequest) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("project_id = ?", projectID).First(&category, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" && req.Name != category.Name {
		var count int64
		s.db.Model(&models.Category{}).
			Where("project_id = ? AND name = ? AND id <> ?", projectID, req.Name, id).
			Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("category %q already exists in this project", req.Name)
		}
		updates["name"] = req.Name
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}

	if err := s.db.Model(&category).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete removes a category. Tasks referencing it are detached, not deleted.
func (s *CategoryService) Delete(projectID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("project_id = ?", projectID).Delete(&models.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("category not found")
		}
		return tx.Model(&models.Task{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error
	})
}
