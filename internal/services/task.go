package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

type TaskService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewTaskService(db *gorm.DB, notifier *NotificationService) *TaskService {
	return &TaskService{db: db, notifier: notifier}
}

// ProjectOfTask derives the project a task belongs to, for scope discovery.
// A missing task and a task without a project reference are different
// failures and keep their own error types.
func (s *TaskService) ProjectOfTask(ctx context.Context, taskID uint) (uint, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Select("id", "project_id").First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &authz.NotFoundError{Resource: "task", ID: taskID}
	}
	if err != nil {
		return 0, err
	}
	if task.ProjectID == 0 {
		return 0, &authz.InvariantError{Message: fmt.Sprintf("task %d has no project reference", taskID)}
	}
	return task.ProjectID, nil
}

type TaskListRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	ProjectID  uint   `form:"projectId"`
	CategoryID uint   `form:"category_id"`
	AssigneeID uint   `form:"assignee_id"`
	Status     string `form:"status"`
	Search     string `form:"search"`
}

type TaskListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Task `json:"items"`
}

type CreateTaskRequest struct {
	ProjectID   uint       `json:"project" binding:"required"`
	CategoryID  *uint      `json:"category_id"`
	AssigneeID  *uint      `json:"assignee_id"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=open in_progress done"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	CategoryID  *uint      `json:"category_id"`
	AssigneeID  *uint      `json:"assignee_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status" binding:"omitempty,oneof=open in_progress done"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// List returns paginated tasks, optionally filtered by project, category,
// assignee, status or a title search.
func (s *TaskService) List(req *TaskListRequest) (*TaskListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var tasks []models.Task
	var total int64

	query := s.db.Model(&models.Task{})

	if req.ProjectID != 0 {
		query = query.Where("project_id = ?", req.ProjectID)
	}
	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.AssigneeID != 0 {
		query = query.Where("assignee_id = ?", req.AssigneeID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		query = query.Where("title LIKE ?", "%"+req.Search+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").Preload("Assignee").
		Offset(offset).Limit(req.PageSize).
		Order("priority DESC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return &TaskListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    tasks,
	}, nil
}

// GetByID returns a task with its relations preloaded
func (s *TaskService) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.Preload("Project").Preload("Category").Preload("Assignee").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a new task in a project
func (s *TaskService) Create(req *CreateTaskRequest, userID uint) (*models.Task, error) {
	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d not found", req.ProjectID)
		}
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, errors.New("project is archived")
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(*req.CategoryID, req.ProjectID); err != nil {
			return nil, err
		}
	}

	status := req.Status
	if status == "" {
		status = models.TaskStatusOpen
	}

	task := models.Task{
		ProjectID:   req.ProjectID,
		CategoryID:  req.CategoryID,
		AssigneeID:  req.AssigneeID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedBy:   userID,
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyTaskAssigned(&task, userID)
	}

	return &task, nil
}

// Update updates a task. The project reference is immutable; tasks do not
// move between projects.
func (s *TaskService) Update(id uint, req *UpdateTaskRequest, userID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		return nil, err
	}

	oldStatus := task.Status
	oldAssignee := task.AssigneeID

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}
	if req.CategoryID != nil {
		if *req.CategoryID != 0 {
			if err := s.checkCategory(*req.CategoryID, task.ProjectID); err != nil {
				return nil, err
			}
			updates["category_id"] = *req.CategoryID
		} else {
			updates["category_id"] = nil
		}
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID != 0 {
			updates["assignee_id"] = *req.AssigneeID
		} else {
			updates["assignee_id"] = nil
		}
	}

	if err := s.db.Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if task.AssigneeID != nil && (oldAssignee == nil || *oldAssignee != *task.AssigneeID) {
			s.notifier.NotifyTaskAssigned(&task, userID)
		}
		s.notifier.NotifyTaskStatus(&task, userID, oldStatus)
	}

	return &task, nil
}

// Delete removes a task and its comments
func (s *TaskService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("task not found")
		}
		return tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error
	})
}

// checkCategory verifies a category exists and belongs to the given project
func (s *TaskService) checkCategory(categoryID, projectID uint) error {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category %d not found", categoryID)
		}
		return err
	}
	if category.ProjectID != projectID {
		return fmt.Errorf("category %d belongs to a different project", categoryID)
	}
	return nil
}
