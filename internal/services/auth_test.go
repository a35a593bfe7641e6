package services

import (
	"testing"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/utils"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	if err := db.AutoMigrate(&models.RefreshToken{}, &models.SystemConfig{}); err != nil {
		t.Fatalf("migrate auth tables: %v", err)
	}

	utils.SetJWTSecret("test-secret")
	jwtCfg := &config.JWTConfig{Secret: "test-secret", ExpireHour: 1}
	ldapCfg := &config.LDAPConfig{Enabled: false}
	return NewAuthService(db, jwtCfg, ldapCfg), db
}

func seedLocalUser(t *testing.T, db *gorm.DB, username, password string, active bool) *models.User {
	t.Helper()

	var role models.Role
	if err := db.Where("name = ?", "member").First(&role).Error; err != nil {
		role = models.Role{Name: "member", Permissions: "view_project,view_tasks"}
		if err := db.Create(&role).Error; err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username: username,
		Password: hashed,
		RoleID:   role.ID,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	// Create drops a false IsActive because of the column default; disable
	// with an explicit update so the fixture really is inactive
	if !active {
		if err := db.Model(&user).Update("is_active", false).Error; err != nil {
			t.Fatalf("disable user: %v", err)
		}
	}
	return &user
}

func TestLogin_Local(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "alice", "hunter22", true)

	result, err := service.Login(&LoginRequest{Username: "alice", Password: "hunter22"}, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected both tokens")
	}
	if result.User.Username != "alice" {
		t.Errorf("wrong user: %q", result.User.Username)
	}

	claims, err := utils.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != "member" {
		t.Errorf("token carries role %q, want member", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "alice", "hunter22", true)

	if _, err := service.Login(&LoginRequest{Username: "alice", Password: "wrong"}, "", ""); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := service.Login(&LoginRequest{Username: "nobody", Password: "hunter22"}, "", ""); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "bob", "hunter22", false)

	if _, err := service.Login(&LoginRequest{Username: "bob", Password: "hunter22"}, "", ""); err == nil {
		t.Error("expected error for disabled user")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "alice", "hunter22", true)

	login, err := service.Login(&LoginRequest{Username: "alice", Password: "hunter22"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := service.Refresh(login.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The rotated token is dead
	if _, err := service.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("expected error reusing a rotated refresh token")
	}

	// The replacement works
	if _, err := service.Refresh(refreshed.RefreshToken, "", ""); err != nil {
		t.Errorf("replacement refresh token rejected: %v", err)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "alice", "hunter22", true)

	login, err := service.Login(&LoginRequest{Username: "alice", Password: "hunter22"}, "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := service.RevokeRefreshToken(login.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if _, err := service.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("expected error using a revoked refresh token")
	}
}

func TestChangePassword(t *testing.T) {
	service, db := newAuthService(t)
	seedLocalUser(t, db, "alice", "hunter22", true)

	err := service.ChangePassword(1, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass1"})
	if err == nil {
		t.Error("expected error for wrong old password")
	}

	if err := service.ChangePassword(1, &ChangePasswordRequest{OldPassword: "hunter22", NewPassword: "newpass1"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := service.Login(&LoginRequest{Username: "alice", Password: "hunter22"}, "", ""); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := service.Login(&LoginRequest{Username: "alice", Password: "newpass1"}, "", ""); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestCreateAdminIfNotExists(t *testing.T) {
	service, db := newAuthService(t)

	adminRole := models.Role{Name: "admin", Permissions: "manage_users,assign_roles"}
	if err := db.Create(&adminRole).Error; err != nil {
		t.Fatalf("seed admin role: %v", err)
	}

	if err := service.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists: %v", err)
	}
	// Idempotent
	if err := service.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second CreateAdminIfNotExists: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("role_id = ?", adminRole.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 admin, got %d", count)
	}

	if _, err := service.Login(&LoginRequest{Username: "admin", Password: "admin"}, "", ""); err != nil {
		t.Errorf("default admin login failed: %v", err)
	}
}
