package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	service *services.SystemConfigService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{service: services.NewSystemConfigService(db)}
}

// GetEmailConfig returns the mailer settings; the password itself is never
// echoed back, only whether one is set
// GET /api/system-configs/email
func (h *SystemConfigHandler) GetEmailConfig(c *gin.Context) {
	response.Success(c, h.service.GetEmailConfig())
}

// UpdateEmailConfig updates the mailer settings
// PUT /api/system-configs/email
func (h *SystemConfigHandler) UpdateEmailConfig(c *gin.Context) {
	var req services.UpdateEmailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.UpdateEmailConfig(&req); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, h.service.GetEmailConfig())
}
