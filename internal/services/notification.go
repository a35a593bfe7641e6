package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService builds notification jobs from domain events and
// delivers them. Enqueueing never fails a request: delivery problems are
// logged, not surfaced.
type NotificationService struct {
	db    *gorm.DB
	queue NotifyQueue
	email *EmailService
}

func NewNotificationService(db *gorm.DB, queue NotifyQueue) *NotificationService {
	return &NotificationService{
		db:    db,
		queue: queue,
		email: NewEmailService(db),
	}
}

// NotifyTaskAssigned tells the assignee they were put on a task.
func (s *NotificationService) NotifyTaskAssigned(task *models.Task, actorID uint) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}

	s.enqueue(&NotificationTask{
		ID:          uuid.NewString(),
		Kind:        "task_assigned",
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		ActorID:     actorID,
		RecipientID: *task.AssigneeID,
		Subject:     fmt.Sprintf("[TaskHive] Task assigned: %s", task.Title),
		Body:        fmt.Sprintf("You have been assigned the task %q.\n\n%s", task.Title, task.Description),
	})
}

// NotifyCommentAdded tells the task's assignee about a new comment. The
// commenter never gets notified about their own comment.
func (s *NotificationService) NotifyCommentAdded(task *models.Task, comment *models.Comment) {
	if task.AssigneeID == nil || *task.AssigneeID == comment.UserID {
		return
	}

	s.enqueue(&NotificationTask{
		ID:          uuid.NewString(),
		Kind:        "comment_added",
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		CommentID:   comment.ID,
		ActorID:     comment.UserID,
		RecipientID: *task.AssigneeID,
		Subject:     fmt.Sprintf("[TaskHive] New comment on: %s", task.Title),
		Body:        comment.Body,
	})
}

// NotifyTaskStatus tells the assignee about a status change made by someone
// else.
func (s *NotificationService) NotifyTaskStatus(task *models.Task, actorID uint, oldStatus string) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	if task.Status == oldStatus {
		return
	}

	s.enqueue(&NotificationTask{
		ID:          uuid.NewString(),
		Kind:        "task_status",
		ProjectID:   task.ProjectID,
		TaskID:      task.ID,
		ActorID:     actorID,
		RecipientID: *task.AssigneeID,
		Subject:     fmt.Sprintf("[TaskHive] Task updated: %s", task.Title),
		Body:        fmt.Sprintf("Task %q moved from %s to %s.", task.Title, oldStatus, task.Status),
	})
}

func (s *NotificationService) enqueue(task *NotificationTask) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Errorf("[Notification] Failed to enqueue %s notification: %v", task.Kind, err)
	}
}

// Deliver is the queue processor: it resolves the recipient's address and
// hands the message to the mailer.
func (s *NotificationService) Deliver(ctx context.Context, task *NotificationTask) error {
	var recipient models.User
	if err := s.db.WithContext(ctx).First(&recipient, task.RecipientID).Error; err != nil {
		return fmt.Errorf("notification recipient %d: %w", task.RecipientID, err)
	}
	if !recipient.IsActive || recipient.Email == "" {
		return nil
	}

	return s.email.SendNotification(task, []string{recipient.Email})
}
