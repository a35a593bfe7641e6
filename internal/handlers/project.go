package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

type ProjectHandler struct {
	service  *services.ProjectService
	resolver *authz.Resolver
}

func NewProjectHandler(service *services.ProjectService, resolver *authz.Resolver) *ProjectHandler {
	return &ProjectHandler{service: service, resolver: resolver}
}

// List returns projects visible to the caller. Privileged roles see all
// projects; everyone else sees only projects they hold a grant in.
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	restrictTo := middleware.GetUserID(c)
	if actor := middleware.GetActor(c); actor != nil && h.resolver.IsPrivileged(actor) {
		restrictTo = 0
	}

	resp, err := h.service.List(&req, restrictTo)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// Get returns a single project
// GET /api/projects/:project_id
func (h *ProjectHandler) Get(c *gin.Context) {
	id := paramID(c, "project_id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.service.GetByID(id)
	if err != nil {
		response.NotFound(c, "project not found")
		return
	}

	response.Success(c, project)
}

// Create creates a project with its initial member grants
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.service.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, project)
}

// Update updates a project
// PUT /api/projects/:project_id
func (h *ProjectHandler) Update(c *gin.Context) {
	id := paramID(c, "project_id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.service.Update(id, &req)
	if err != nil {
		response.NotFound(c, "project not found")
		return
	}

	response.Success(c, project)
}

// Delete removes a project and everything scoped to it
// DELETE /api/projects/:project_id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id := paramID(c, "project_id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.service.Delete(id); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "project deleted"})
}

// Members returns the project's grant table
// GET /api/projects/:project_id/members
func (h *ProjectHandler) Members(c *gin.Context) {
	id := paramID(c, "project_id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	members, err := h.service.Members(id)
	if err != nil {
		response.NotFound(c, "project not found")
		return
	}

	response.Success(c, members)
}

type replaceMembersRequest struct {
	Members []services.MemberGrant `json:"members" binding:"required"`
}

// ReplaceMembers swaps the project's whole grant table in one transaction
// PUT /api/projects/:project_id/members
func (h *ProjectHandler) ReplaceMembers(c *gin.Context) {
	id := paramID(c, "project_id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req replaceMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ReplaceMembers(id, req.Members); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "members updated"})
}

// paramID parses a uint route parameter, returning 0 when absent or invalid
func paramID(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
