package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/pkg/logger"
)

const (
	TaskTypeNotify = "notify:deliver"
)

// NotificationTask is a notification delivery job. Kind selects the message
// template; RecipientID is the user to notify.
type NotificationTask struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // task_assigned, comment_added, task_status
	ProjectID   uint   `json:"project_id"`
	TaskID      uint   `json:"task_id"`
	CommentID   uint   `json:"comment_id,omitempty"`
	ActorID     uint   `json:"actor_id"`
	RecipientID uint   `json:"recipient_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// NotifyQueue defines the interface for notification delivery
type NotifyQueue interface {
	// Enqueue adds a notification to the queue
	Enqueue(task *NotificationTask) error
	// IsAsync returns true if the queue delivers asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global notify queue instance
var (
	globalNotifyQueue NotifyQueue
	notifyQueueOnce   sync.Once
)

// InitNotifyQueue initializes the global notify queue based on config
func InitNotifyQueue(cfg *config.Config) NotifyQueue {
	notifyQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncNotifyQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[NotifyQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalNotifyQueue = NewSyncNotifyQueue()
			} else {
				logger.Infof("[NotifyQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalNotifyQueue = queue
			}
		} else {
			logger.Infof("[NotifyQueue] Sync queue initialized (Redis disabled)")
			globalNotifyQueue = NewSyncNotifyQueue()
		}
	})
	return globalNotifyQueue
}

// GetNotifyQueue returns the global notify queue instance
func GetNotifyQueue() NotifyQueue {
	return globalNotifyQueue
}

// AsyncNotifyQueue implements NotifyQueue using asynq (Redis-based)
type AsyncNotifyQueue struct {
	client *asynq.Client
}

// NewAsyncNotifyQueue creates a new Redis-based async queue
func NewAsyncNotifyQueue(cfg *config.RedisConfig) (*AsyncNotifyQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the Redis connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncNotifyQueue{client: client}, nil
}

// Enqueue adds a notification to the async queue
func (q *AsyncNotifyQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[NotifyQueue] Notification enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncNotifyQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncNotifyQueue) Close() error {
	return q.client.Close()
}

// SyncNotifyQueue implements NotifyQueue with in-process delivery (no Redis)
type SyncNotifyQueue struct {
	processor func(context.Context, *NotificationTask) error
}

// NewSyncNotifyQueue creates a new synchronous queue
func NewSyncNotifyQueue() *SyncNotifyQueue {
	return &SyncNotifyQueue{}
}

// SetProcessor sets the function to deliver notifications synchronously
func (q *SyncNotifyQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.processor = processor
}

// Enqueue delivers the notification in a goroutine so the request is not
// blocked on SMTP
func (q *SyncNotifyQueue) Enqueue(task *NotificationTask) error {
	if q.processor == nil {
		logger.Infof("[SyncNotifyQueue] Warning: no processor set, notification will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[SyncNotifyQueue] Delivery failed: %v", err)
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncNotifyQueue) IsAsync() bool {
	return false
}

// Close is a no-op for sync queue
func (q *SyncNotifyQueue) Close() error {
	return nil
}
