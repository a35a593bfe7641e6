package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List returns tasks of a project. The projectId query parameter doubles as
// the authorization scope upstream.
// GET /api/tasks?projectId=N
func (h *TaskHandler) List(c *gin.Context) {
	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// Get returns a single task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id := paramID(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.service.GetByID(id)
	if err != nil {
		response.NotFound(c, "task not found")
		return
	}

	response.Success(c, task)
}

// Create creates a task. The project field in the body is also what the
// authorization scope is discovered from.
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, task)
}

// Update updates a task
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id := paramID(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.Update(id, &req, middleware.GetUserID(c))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, task)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id := paramID(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid task id")
		return
	}

	if err := h.service.Delete(id); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "task deleted"})
}
