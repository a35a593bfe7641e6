package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

type CommentHandler struct {
	service  *services.CommentService
	resolver *authz.Resolver
}

func NewCommentHandler(service *services.CommentService, resolver *authz.Resolver) *CommentHandler {
	return &CommentHandler{service: service, resolver: resolver}
}

// List returns a task's comments
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	taskID := paramID(c, "id")
	if taskID == 0 {
		response.BadRequest(c, "invalid task id")
		return
	}

	comments, err := h.service.ListByTask(taskID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, comments)
}

// Create adds a comment to a task
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	taskID := paramID(c, "id")
	if taskID == 0 {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.service.Create(taskID, &req, middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "task not found")
		return
	}

	response.Created(c, comment)
}

// Delete removes a comment. Authors delete their own; privileged roles may
// delete any.
// DELETE /api/tasks/:id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	taskID := paramID(c, "id")
	commentID := paramID(c, "comment_id")
	if taskID == 0 || commentID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	isOwner := false
	if actor := middleware.GetActor(c); actor != nil && h.resolver.IsPrivileged(actor) {
		isOwner = true
	}

	if err := h.service.Delete(taskID, commentID, middleware.GetUserID(c), isOwner); err != nil {
		if errors.Is(err, services.ErrNotCommentAuthor) {
			response.Forbidden(c, err.Error())
			return
		}
		response.NotFound(c, "comment not found")
		return
	}

	response.Success(c, gin.H{"message": "comment deleted"})
}
