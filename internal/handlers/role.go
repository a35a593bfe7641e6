package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/pkg/response"
	"gorm.io/gorm"
)

type RoleHandler struct {
	db *gorm.DB
}

func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{db: db}
}

// List returns all roles
// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	var roles []models.Role
	if err := h.db.Order("id ASC").Find(&roles).Error; err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, roles)
}

// Permissions returns the closed permission vocabulary so clients can render
// pickers without hardcoding the token list
// GET /api/roles/permissions
func (h *RoleHandler) Permissions(c *gin.Context) {
	perms := authz.All()
	tokens := make([]string, len(perms))
	for i, p := range perms {
		tokens[i] = string(p)
	}
	response.Success(c, tokens)
}

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Create creates a role
// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	set, err := authz.ParseList(req.Permissions)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var count int64
	h.db.Model(&models.Role{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		response.Conflict(c, "role name already exists")
		return
	}

	role := models.Role{
		Name:        req.Name,
		Description: req.Description,
	}
	role.SetPermissions(set)

	if err := h.db.Create(&role).Error; err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, role)
}

type UpdateRoleRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}

// Update changes a role's name, description or permission tokens
// PUT /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var role models.Role
	if err := h.db.First(&role, id).Error; err != nil {
		response.NotFound(c, "role not found")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" && req.Name != role.Name {
		if role.IsSystem {
			response.BadRequest(c, "system roles cannot be renamed")
			return
		}
		var count int64
		h.db.Model(&models.Role{}).Where("name = ? AND id <> ?", req.Name, id).Count(&count)
		if count > 0 {
			response.Conflict(c, "role name already exists")
			return
		}
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Permissions != nil {
		set, err := authz.ParseList(req.Permissions)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		updates["permissions"] = set.Encode()
	}

	if len(updates) == 0 {
		response.BadRequest(c, "no fields to update")
		return
	}

	if err := h.db.Model(&role).Updates(updates).Error; err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.db.First(&role, id)
	response.Success(c, role)
}

// Delete removes a role. System roles and roles still referenced by users
// are protected; deleting them would leave users with a dangling role.
// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var role models.Role
	if err := h.db.First(&role, id).Error; err != nil {
		response.NotFound(c, "role not found")
		return
	}

	if role.IsSystem {
		response.BadRequest(c, "system roles cannot be deleted")
		return
	}

	var userCount int64
	h.db.Model(&models.User{}).Where("role_id = ?", role.ID).Count(&userCount)
	if userCount > 0 {
		response.Conflict(c, "role is still assigned to users")
		return
	}

	if err := h.db.Delete(&role).Error; err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "role deleted"})
}
