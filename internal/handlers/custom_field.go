package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
)

type CustomFieldHandler struct {
	service *services.CustomFieldService
}

func NewCustomFieldHandler(service *services.CustomFieldService) *CustomFieldHandler {
	return &CustomFieldHandler{service: service}
}

// List returns a project's custom field definitions
// GET /api/projects/:project_id/fields
func (h *CustomFieldHandler) List(c *gin.Context) {
	projectID := paramID(c, "project_id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	fields, err := h.service.ListByProject(projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, fields)
}

// Create defines a custom field on a project
// POST /api/projects/:project_id/fields
func (h *CustomFieldHandler) Create(c *gin.Context) {
	projectID := paramID(c, "project_id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	field, err := h.service.Create(projectID, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, field)
}

// Update changes a custom field definition
// PUT /api/projects/:project_id/fields/:field_id
func (h *CustomFieldHandler) Update(c *gin.Context) {
	projectID := paramID(c, "project_id")
	fieldID := paramID(c, "field_id")
	if projectID == 0 || fieldID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	var req services.UpdateCustomFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	field, err := h.service.Update(projectID, fieldID, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, field)
}

// Delete removes a custom field definition
// DELETE /api/projects/:project_id/fields/:field_id
func (h *CustomFieldHandler) Delete(c *gin.Context) {
	projectID := paramID(c, "project_id")
	fieldID := paramID(c, "field_id")
	if projectID == 0 || fieldID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	if err := h.service.Delete(projectID, fieldID); err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "custom field deleted"})
}
