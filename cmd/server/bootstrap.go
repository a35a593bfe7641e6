package main

import (
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/handlers"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/internal/utils"
	"github.com/taskhive/taskhive/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	resolver    *authz.Resolver
	notifyQueue services.NotifyQueue
	worker      *services.Worker

	authHandler       *handlers.AuthHandler
	projectHandler    *handlers.ProjectHandler
	taskHandler       *handlers.TaskHandler
	commentHandler    *handlers.CommentHandler
	categoryHandler   *handlers.CategoryHandler
	fieldHandler      *handlers.CustomFieldHandler
	permissionHandler *handlers.ProjectPermissionHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default roles and settings
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(db)

	// Initialize notification queue (uses Redis if enabled, otherwise sync mode)
	notifyQueue := services.InitNotifyQueue(cfg)
	notificationService := services.NewNotificationService(db, notifyQueue)
	if syncQueue, ok := notifyQueue.(*services.SyncNotifyQueue); ok {
		syncQueue.SetProcessor(notificationService.Deliver)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Deliver)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start notification worker")
			}
		}
	}

	// Domain services
	grantService := services.NewGrantService(db)
	taskService := services.NewTaskService(db, notificationService)
	projectService := services.NewProjectService(db, grantService)
	categoryService := services.NewCategoryService(db)
	commentService := services.NewCommentService(db, notificationService)
	fieldService := services.NewCustomFieldService(db)

	// The resolver decides every project-scoped action: privileged roles
	// bypass grant lookup, everyone else needs a per-project grant.
	resolver := authz.NewResolver(grantService, taskService, cfg.Auth.PrivilegedRoles)

	// Create default admin user
	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:         cfg,
		resolver:    resolver,
		notifyQueue: notifyQueue,
		worker:      worker,

		authHandler:       authHandler,
		projectHandler:    handlers.NewProjectHandler(projectService, resolver),
		taskHandler:       handlers.NewTaskHandler(taskService),
		commentHandler:    handlers.NewCommentHandler(commentService, resolver),
		categoryHandler:   handlers.NewCategoryHandler(categoryService),
		fieldHandler:      handlers.NewCustomFieldHandler(fieldService),
		permissionHandler: handlers.NewProjectPermissionHandler(grantService),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	services.StopLogCleanupScheduler()
	logger.Info().Msg("Schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.notifyQueue != nil {
		s.notifyQueue.Close()
	}
}
