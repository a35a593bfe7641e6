package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/utils"
	"github.com/taskhive/taskhive/pkg/logger"
	"gorm.io/gorm"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextActor    = "actor"
)

// AuthRequired checks for a valid JWT token and loads the actor (user plus
// global role and its permission set) into the request context. Downstream
// authorization middleware relies on the actor being present.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.Preload("Role").First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "user is disabled"})
			c.Abort()
			return
		}

		// A user whose role row is gone is corrupted state, not a denial.
		if user.Role == nil {
			logger.Error().
				Uint("user_id", user.ID).
				Uint("role_id", user.RoleID).
				Msg("user references a role that does not exist")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user role cannot be resolved"})
			c.Abort()
			return
		}

		rolePerms, err := user.Role.PermissionSet()
		if err != nil {
			logger.Error().
				Err(err).
				Uint("role_id", user.Role.ID).
				Msg("role permission list is corrupted")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "role permissions cannot be resolved"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextRole, user.Role.Name)
		c.Set(ContextActor, &authz.Actor{
			ID:              user.ID,
			Role:            user.Role.Name,
			RolePermissions: rolePerms,
		})

		c.Next()
	}
}

// GetActor gets the authenticated actor from context, or nil.
func GetActor(c *gin.Context) *authz.Actor {
	if v, exists := c.Get(ContextActor); exists {
		if actor, ok := v.(*authz.Actor); ok {
			return actor
		}
	}
	return nil
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// GetRole gets the current user's global role name from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}
