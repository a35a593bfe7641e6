package services

import (
	"errors"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db     *gorm.DB
	grants *GrantService
}

func NewProjectService(db *gorm.DB, grants *GrantService) *ProjectService {
	return &ProjectService{db: db, grants: grants}
}

type ProjectListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Name     string `form:"name"`
	Status   string `form:"status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Members     []MemberGrant `json:"members"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=active archived"`
}

// List returns paginated projects. For non-privileged callers the result is
// narrowed to projects the user holds a grant in.
func (s *ProjectService) List(req *ProjectListRequest, restrictToUser uint) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})

	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if restrictToUser != 0 {
		query = query.Where(
			"id IN (?)",
			s.db.Model(&models.ProjectPermission{}).Select("project_id").Where("user_id = ?", restrictToUser),
		)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Create creates a project and its initial member grants in one transaction.
// The creator gets a full project grant so they are not locked out of their
// own project.
func (s *ProjectService) Create(req *CreateProjectRequest, userID uint) (*models.Project, error) {
	memberSets := make(map[uint]authz.Set, len(req.Members)+1)
	for _, m := range req.Members {
		set, err := authz.ParseList(m.Permissions)
		if err != nil {
			return nil, err
		}
		memberSets[m.UserID] = set
	}
	if _, ok := memberSets[userID]; !ok {
		memberSets[userID] = authz.NewSet(authz.All()...)
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusActive,
		CreatedBy:   userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		txGrants := s.grants.WithTx(tx)
		for memberID, set := range memberSets {
			// An empty member set grants nothing; never write an empty row
			if len(set) == 0 {
				continue
			}
			if _, err := txGrants.Upsert(project.ID, memberID, set); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

// Update updates a project's name, description or status
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// Delete removes a project together with its grants, tasks, categories and
// custom fields. Everything goes in one transaction so no orphan grant can
// keep authorizing against a dead project.
func (s *ProjectService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("project not found")
		}

		if err := s.grants.WithTx(tx).RevokeAllForProject(id); err != nil {
			return err
		}

		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("project_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", id).Delete(&models.CustomField{}).Error
	})
}

// Members returns the project's grant table with users preloaded
func (s *ProjectService) Members(projectID uint) ([]models.ProjectPermission, error) {
	if _, err := s.GetByID(projectID); err != nil {
		return nil, err
	}
	return s.grants.ListByProject(projectID)
}

// ReplaceMembers swaps the project's whole grant table
func (s *ProjectService) ReplaceMembers(projectID uint, members []MemberGrant) error {
	if _, err := s.GetByID(projectID); err != nil {
		return err
	}
	return s.grants.ReplaceForProject(projectID, members)
}
