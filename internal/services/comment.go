package services

import (
	"errors"

	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

// ErrNotCommentAuthor marks a comment deletion attempted by someone other
// than the author.
var ErrNotCommentAuthor = errors.New("only the author can delete this comment")

type CommentService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewCommentService(db *gorm.DB, notifier *NotificationService) *CommentService {
	return &CommentService{db: db, notifier: notifier}
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// ListByTask returns a task's comments, oldest first, with authors preloaded
func (s *CommentService) ListByTask(taskID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Create adds a comment to a task and notifies the assignee
func (s *CommentService) Create(taskID uint, req *CreateCommentRequest, userID uint) (*models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, err
	}

	comment := models.Comment{
		TaskID: taskID,
		UserID: userID,
		Body:   req.Body,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyCommentAdded(&task, &comment)
	}

	return &comment, nil
}

// Delete removes a comment. Only the author may delete their own comment;
// ownership by others is handled at the permission layer above.
func (s *CommentService) Delete(taskID, commentID, userID uint, isOwner bool) error {
	var comment models.Comment
	if err := s.db.Where("task_id = ?", taskID).First(&comment, commentID).Error; err != nil {
		return err
	}

	if !isOwner && comment.UserID != userID {
		return ErrNotCommentAuthor
	}

	return s.db.Delete(&comment).Error
}
