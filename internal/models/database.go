package models

import (
	"fmt"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Role{},
		&User{},
		&Project{},
		&ProjectPermission{},
		&Task{},
		&Category{},
		&Comment{},
		&CustomField{},
		&RefreshToken{},
		&SystemConfig{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default roles and system configs if not exists
func SeedDefaultData() error {
	defaultRoles := []Role{
		{
			Name:        "admin",
			Description: "Full access to everything",
			Permissions: authz.NewSet(authz.All()...).Encode(),
			IsSystem:    true,
		},
		{
			Name:        "manager",
			Description: "Project and team management",
			Permissions: authz.NewSet(authz.All()...).Encode(),
			IsSystem:    true,
		},
		{
			Name:        "member",
			Description: "Regular project member",
			Permissions: authz.NewSet(
				authz.PermViewProject,
				authz.PermViewTasks,
				authz.PermComment,
			).Encode(),
			IsSystem: true,
		},
		{
			Name:        "viewer",
			Description: "Read-only access",
			Permissions: authz.NewSet(
				authz.PermViewProject,
				authz.PermViewTasks,
			).Encode(),
			IsSystem: true,
		},
	}

	for _, role := range defaultRoles {
		var count int64
		DB.Model(&Role{}).Where("name = ?", role.Name).Count(&count)
		if count == 0 {
			if err := DB.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	defaultConfigs := []SystemConfig{
		{Key: "email_enabled", Value: "false", Type: "bool", Group: "email", Label: "Enable Email Notifications"},
		{Key: "email_host", Value: "", Type: "string", Group: "email", Label: "SMTP Server Host"},
		{Key: "email_port", Value: "587", Type: "int", Group: "email", Label: "SMTP Server Port"},
		{Key: "email_username", Value: "", Type: "string", Group: "email", Label: "SMTP Username"},
		{Key: "email_password", Value: "", Type: "string", Group: "email", Label: "SMTP Password"},
		{Key: "email_from", Value: "", Type: "string", Group: "email", Label: "Sender Address"},
		{Key: "email_use_tls", Value: "false", Type: "bool", Group: "email", Label: "Use SSL/TLS"},
		{Key: "auth_access_token_expire_hours", Value: "24", Type: "int", Group: "auth", Label: "Access Token Lifetime (hours)"},
		{Key: "auth_refresh_token_expire_hours", Value: "720", Type: "int", Group: "auth", Label: "Refresh Token Lifetime (hours)"},
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("`key` = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
