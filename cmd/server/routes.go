package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/handlers"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public auth routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	resolver := svc.resolver

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(db), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Projects. Listing is open to every authenticated user; the
			// handler narrows the result to projects the caller holds a
			// grant on unless the caller is privileged.
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects",
				middleware.RequireGlobal(resolver, authz.PermCreateProject), svc.projectHandler.Create)
			protected.GET("/projects/:project_id",
				middleware.RequireProject(resolver, authz.PermViewProject), svc.projectHandler.Get)
			protected.PUT("/projects/:project_id",
				middleware.RequireProject(resolver, authz.PermEditProject), svc.projectHandler.Update)
			protected.DELETE("/projects/:project_id",
				middleware.RequireProject(resolver, authz.PermDeleteProject), svc.projectHandler.Delete)
			protected.GET("/projects/:project_id/members",
				middleware.RequireProject(resolver, authz.PermViewProject), svc.projectHandler.Members)
			protected.PUT("/projects/:project_id/members",
				middleware.RequireProject(resolver, authz.PermEditProject), svc.projectHandler.ReplaceMembers)

			// Categories (per project)
			protected.GET("/projects/:project_id/categories",
				middleware.RequireProject(resolver, authz.PermViewProject), svc.categoryHandler.List)
			protected.POST("/projects/:project_id/categories",
				middleware.RequireProject(resolver, authz.PermManageCategories), svc.categoryHandler.Create)
			protected.PUT("/projects/:project_id/categories/:category_id",
				middleware.RequireProject(resolver, authz.PermManageCategories), svc.categoryHandler.Update)
			protected.DELETE("/projects/:project_id/categories/:category_id",
				middleware.RequireProject(resolver, authz.PermManageCategories), svc.categoryHandler.Delete)

			// Custom fields (per project)
			protected.GET("/projects/:project_id/fields",
				middleware.RequireProject(resolver, authz.PermViewProject), svc.fieldHandler.List)
			protected.POST("/projects/:project_id/fields",
				middleware.RequireProject(resolver, authz.PermManageFields), svc.fieldHandler.Create)
			protected.PUT("/projects/:project_id/fields/:field_id",
				middleware.RequireProject(resolver, authz.PermManageFields), svc.fieldHandler.Update)
			protected.DELETE("/projects/:project_id/fields/:field_id",
				middleware.RequireProject(resolver, authz.PermManageFields), svc.fieldHandler.Delete)

			// Tasks. Scope comes from ?projectId on the list, the body
			// `project` field on create, and the task itself elsewhere.
			protected.GET("/tasks",
				middleware.RequireProject(resolver, authz.PermViewTasks), svc.taskHandler.List)
			protected.POST("/tasks",
				middleware.RequireProject(resolver, authz.PermCreateTask), svc.taskHandler.Create)
			protected.GET("/tasks/:id",
				middleware.RequireProject(resolver, authz.PermViewTasks), svc.taskHandler.Get)
			protected.PUT("/tasks/:id",
				middleware.RequireProject(resolver, authz.PermEditTask), svc.taskHandler.Update)
			protected.DELETE("/tasks/:id",
				middleware.RequireProject(resolver, authz.PermDeleteTask), svc.taskHandler.Delete)

			// Comments
			protected.GET("/tasks/:id/comments",
				middleware.RequireProject(resolver, authz.PermViewTasks), svc.commentHandler.List)
			protected.POST("/tasks/:id/comments",
				middleware.RequireProject(resolver, authz.PermComment), svc.commentHandler.Create)
			protected.DELETE("/tasks/:id/comments/:comment_id",
				middleware.RequireProject(resolver, authz.PermComment), svc.commentHandler.Delete)

			// Project permissions (grants)
			permGate := middleware.RequireGlobal(resolver, authz.PermManagePermissions)
			protected.GET("/project-permissions", permGate, svc.permissionHandler.List)
			protected.GET("/project-permissions/:id", permGate, svc.permissionHandler.Get)
			protected.POST("/project-permissions", permGate, svc.permissionHandler.Upsert)
			protected.DELETE("/project-permissions/:id", permGate, svc.permissionHandler.Delete)

			// Users
			userHandler := handlers.NewUserHandler(db)
			userGate := middleware.RequireGlobal(resolver, authz.PermManageUsers)
			protected.GET("/users", userGate, userHandler.List)
			protected.POST("/users", userGate, userHandler.Create)
			protected.PUT("/users/:id", userGate, userHandler.Update)
			protected.DELETE("/users/:id", userGate, userHandler.Delete)

			// Roles (reads open to all authenticated users)
			roleHandler := handlers.NewRoleHandler(db)
			roleGate := middleware.RequireGlobal(resolver, authz.PermAssignRoles)
			protected.GET("/roles", roleHandler.List)
			protected.GET("/roles/permissions", roleHandler.Permissions)
			protected.POST("/roles", roleGate, roleHandler.Create)
			protected.PUT("/roles/:id", roleGate, roleHandler.Update)
			protected.DELETE("/roles/:id", roleGate, roleHandler.Delete)

			// System logs
			systemLogHandler := handlers.NewSystemLogHandler(db)
			protected.GET("/system-logs", userGate, systemLogHandler.List)
			protected.GET("/system-logs/modules", userGate, systemLogHandler.Modules)
			protected.GET("/system-logs/retention", userGate, systemLogHandler.GetRetention)
			protected.PUT("/system-logs/retention", userGate, systemLogHandler.SetRetention)

			// System configs
			systemConfigHandler := handlers.NewSystemConfigHandler(db)
			protected.GET("/system-configs/email", userGate, systemConfigHandler.GetEmailConfig)
			protected.PUT("/system-configs/email", userGate, systemConfigHandler.UpdateEmailConfig)
		}
	}
}
