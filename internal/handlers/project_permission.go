package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

// ProjectPermissionHandler manages individual grant rows. Routes here are
// globally gated (manage_permissions); the project-scoped member routes live
// on ProjectHandler.
type ProjectPermissionHandler struct {
	grants *services.GrantService
}

func NewProjectPermissionHandler(grants *services.GrantService) *ProjectPermissionHandler {
	return &ProjectPermissionHandler{grants: grants}
}

// List returns grants, filtered by projectId or user_id query params
// GET /api/project-permissions
func (h *ProjectPermissionHandler) List(c *gin.Context) {
	if projectID := queryID(c, "projectId", "project_id"); projectID != 0 {
		grants, err := h.grants.ListByProject(projectID)
		if err != nil {
			response.ServerError(c, err.Error())
			return
		}
		response.Success(c, grants)
		return
	}

	if userID := queryID(c, "user_id"); userID != 0 {
		grants, err := h.grants.ListByUser(userID)
		if err != nil {
			response.ServerError(c, err.Error())
			return
		}
		response.Success(c, grants)
		return
	}

	response.BadRequest(c, "projectId or user_id query parameter required")
}

// Get returns a single grant row
// GET /api/project-permissions/:id
func (h *ProjectPermissionHandler) Get(c *gin.Context) {
	id := paramID(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid grant id")
		return
	}

	grant, err := h.grants.GetByID(id)
	if err != nil {
		response.NotFound(c, "grant not found")
		return
	}

	response.Success(c, grant)
}

type upsertGrantRequest struct {
	ProjectID   uint     `json:"project" binding:"required"`
	UserID      uint     `json:"user_id" binding:"required"`
	Permissions []string `json:"permissions"`
}

// Upsert creates or replaces the grant for a (project, user) pair. The
// permission list replaces the stored one wholesale.
// POST /api/project-permissions
func (h *ProjectPermissionHandler) Upsert(c *gin.Context) {
	var req upsertGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	set, err := authz.ParseList(req.Permissions)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	grant, err := h.grants.Upsert(req.ProjectID, req.UserID, set)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, grant)
}

// Delete revokes a grant row
// DELETE /api/project-permissions/:id
func (h *ProjectPermissionHandler) Delete(c *gin.Context) {
	id := paramID(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid grant id")
		return
	}

	grant, err := h.grants.GetByID(id)
	if err != nil {
		response.NotFound(c, "grant not found")
		return
	}

	if err := h.grants.Revoke(grant.ProjectID, grant.UserID); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "grant revoked"})
}

// queryID parses the first present uint query parameter among names
func queryID(c *gin.Context, names ...string) uint {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				return uint(n)
			}
		}
	}
	return 0
}
