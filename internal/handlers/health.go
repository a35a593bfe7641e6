package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/services"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	queue := services.GetNotifyQueue()
	queueMode := "sync"
	if queue != nil && queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var openTasks int64
	models.GetDB().Model(&models.Task{}).
		Where("status IN ?", []string{models.TaskStatusOpen, models.TaskStatusInProgress}).
		Count(&openTasks)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "taskhive",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"open_tasks": openTasks,
		},
	})
}
