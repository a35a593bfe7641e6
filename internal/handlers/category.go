package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

type CategoryHandler struct {
	service *services.CategoryService
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List returns a project's categories
// GET /api/projects/:project_id/categories
func (h *CategoryHandler) List(c *gin.Context) {
	projectID := paramID(c, "project_id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	categories, err := h.service.ListByProject(projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, categories)
}

// Create creates a category
// POST /api/projects/:project_id/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	projectID := paramID(c, "project_id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.service.Create(projectID, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, category)
}

// Update renames or recolors a category
// PUT /api/projects/:project_id/categories/:category_id
func (h *CategoryHandler) Update(c *gin.Context) {
	projectID := paramID(c, "project_id")
	categoryID := paramID(c, "category_id")
	if projectID == 0 || categoryID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.service.Update(projectID, categoryID, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, category)
}

// Delete removes a category, detaching its tasks
// DELETE /api/projects/:project_id/categories/:category_id
func (h *CategoryHandler) Delete(c *gin.Context) {
	projectID := paramID(c, "project_id")
	categoryID := paramID(c, "category_id")
	if projectID == 0 || categoryID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	if err := h.service.Delete(projectID, categoryID); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "category deleted"})
}
