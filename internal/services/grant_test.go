package services

import (
	"context"
	"testing"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Project{},
		&models.ProjectPermission{},
		&models.Task{},
		&models.Category{},
		&models.Comment{},
		&models.CustomField{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedProjectAndUsers(t *testing.T, db *gorm.DB) (projectID uint, userIDs []uint) {
	t.Helper()

	role := models.Role{Name: "member", Permissions: "view_project,view_tasks"}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}

	for _, name := range []string{"alice", "bob", "carol"} {
		user := models.User{Username: name, Password: "x", RoleID: role.ID, IsActive: true}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("seed user %s: %v", name, err)
		}
		userIDs = append(userIDs, user.ID)
	}

	project := models.Project{Name: "apollo", CreatedBy: userIDs[0], Status: models.ProjectStatusActive}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project.ID, userIDs
}

func TestGrantSet_AbsentVersusEmpty(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	// No record at all
	set, exists, err := service.GrantSet(ctx, projectID, users[0])
	if err != nil {
		t.Fatalf("GrantSet: %v", err)
	}
	if exists {
		t.Fatal("expected no grant record")
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set.List())
	}

	// An explicitly empty grant is a record that exists
	if _, err := service.Upsert(projectID, users[0], authz.NewSet()); err != nil {
		t.Fatalf("Upsert empty: %v", err)
	}
	set, exists, err = service.GrantSet(ctx, projectID, users[0])
	if err != nil {
		t.Fatalf("GrantSet after empty upsert: %v", err)
	}
	if !exists {
		t.Fatal("expected grant record to exist")
	}
	if len(set) != 0 {
		t.Fatalf("expected empty permission set, got %v", set.List())
	}
}

func TestGrantUpsert_ReplacesWholesale(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	first := authz.NewSet(authz.PermViewTasks, authz.PermComment)
	if _, err := service.Upsert(projectID, users[0], first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := authz.NewSet(authz.PermEditTask)
	if _, err := service.Upsert(projectID, users[0], second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	set, exists, err := service.GrantSet(ctx, projectID, users[0])
	if err != nil || !exists {
		t.Fatalf("GrantSet: exists=%v err=%v", exists, err)
	}
	if set.Has(authz.PermComment) || set.Has(authz.PermViewTasks) {
		t.Errorf("old tokens survived replacement: %v", set.List())
	}
	if !set.Has(authz.PermEditTask) {
		t.Errorf("new token missing: %v", set.List())
	}

	// Still exactly one row for the pair
	var count int64
	db.Model(&models.ProjectPermission{}).
		Where("project_id = ? AND user_id = ?", projectID, users[0]).
		Count(&count)
	if count != 1 {
		t.Errorf("expected 1 grant row, got %d", count)
	}
}

func TestGrantUpsert_UnknownProjectOrUser(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)

	if _, err := service.Upsert(9999, users[0], authz.NewSet(authz.PermComment)); err == nil {
		t.Error("expected error for unknown project")
	}
	if _, err := service.Upsert(projectID, 9999, authz.NewSet(authz.PermComment)); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestGrantRevoke_ThenRegrant(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	if _, err := service.Upsert(projectID, users[1], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := service.Revoke(projectID, users[1]); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, exists, err := service.GrantSet(ctx, projectID, users[1])
	if err != nil {
		t.Fatalf("GrantSet after revoke: %v", err)
	}
	if exists {
		t.Fatal("grant should be gone after revoke")
	}

	// Revoking again is a no-op, not an error
	if err := service.Revoke(projectID, users[1]); err != nil {
		t.Fatalf("double revoke: %v", err)
	}

	// Re-granting the same pair must work
	if _, err := service.Upsert(projectID, users[1], authz.NewSet(authz.PermViewTasks)); err != nil {
		t.Fatalf("re-grant after revoke: %v", err)
	}
	set, exists, err := service.GrantSet(ctx, projectID, users[1])
	if err != nil || !exists {
		t.Fatalf("GrantSet after re-grant: exists=%v err=%v", exists, err)
	}
	if !set.Has(authz.PermViewTasks) {
		t.Errorf("re-granted token missing: %v", set.List())
	}
}

func TestGrantSet_CorruptRowSurfacesError(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	row := models.ProjectPermission{
		ProjectID:   projectID,
		UserID:      users[2],
		Permissions: "view_tasks,launch_missiles",
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	_, _, err := service.GrantSet(ctx, projectID, users[2])
	if err == nil {
		t.Fatal("expected error for corrupt grant row")
	}
}

func TestReplaceForProject(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	if _, err := service.Upsert(projectID, users[0], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	if _, err := service.Upsert(projectID, users[1], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	// Replace: drop users[1], keep users[0] with new tokens, add users[2]
	err := service.ReplaceForProject(projectID, []MemberGrant{
		{UserID: users[0], Permissions: []string{"view_tasks", "edit_task"}},
		{UserID: users[2], Permissions: []string{"view_tasks"}},
	})
	if err != nil {
		t.Fatalf("ReplaceForProject: %v", err)
	}

	_, exists, _ := service.GrantSet(ctx, projectID, users[1])
	if exists {
		t.Error("unlisted member should have been removed")
	}

	set, exists, _ := service.GrantSet(ctx, projectID, users[0])
	if !exists || !set.Has(authz.PermEditTask) || set.Has(authz.PermComment) {
		t.Errorf("kept member not replaced wholesale: exists=%v set=%v", exists, set.List())
	}

	_, exists, _ = service.GrantSet(ctx, projectID, users[2])
	if !exists {
		t.Error("new member missing after replace")
	}
}

func TestReplaceForProject_EmptyListRevokes(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	if _, err := service.Upsert(projectID, users[0], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	// Listing a member with no tokens is a revocation, not an empty grant
	err := service.ReplaceForProject(projectID, []MemberGrant{
		{UserID: users[0], Permissions: []string{}},
	})
	if err != nil {
		t.Fatalf("ReplaceForProject: %v", err)
	}

	_, exists, err := service.GrantSet(ctx, projectID, users[0])
	if err != nil {
		t.Fatalf("GrantSet: %v", err)
	}
	if exists {
		t.Fatal("empty permission list must remove the grant record, not keep an empty one")
	}

	var count int64
	db.Model(&models.ProjectPermission{}).
		Where("project_id = ? AND user_id = ?", projectID, users[0]).
		Count(&count)
	if count != 0 {
		t.Errorf("expected 0 grant rows after revocation, got %d", count)
	}
}

func TestReplaceForProject_InvalidTokenRollsBack(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewGrantService(db)
	ctx := context.Background()

	if _, err := service.Upsert(projectID, users[0], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	err := service.ReplaceForProject(projectID, []MemberGrant{
		{UserID: users[0], Permissions: []string{"view_tasks"}},
		{UserID: users[1], Permissions: []string{"not_a_permission"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown permission token")
	}

	// Original grant untouched
	set, exists, _ := service.GrantSet(ctx, projectID, users[0])
	if !exists || !set.Has(authz.PermComment) {
		t.Errorf("failed replace must not mutate grants: exists=%v set=%v", exists, set.List())
	}
}

func TestResolverAgainstRealStore(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	grants := NewGrantService(db)
	tasks := NewTaskService(db, nil)
	resolver := authz.NewResolver(grants, tasks, []string{"admin"})
	ctx := context.Background()

	if _, err := grants.Upsert(projectID, users[0], authz.NewSet(authz.PermEditTask)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	actor := &authz.Actor{ID: users[0], Role: "member", RolePermissions: authz.NewSet()}
	scope := authz.Scope{RouteProjectID: projectID}

	if err := resolver.Authorize(ctx, actor, authz.PermEditTask, scope); err != nil {
		t.Errorf("granted permission denied: %v", err)
	}
	err := resolver.Authorize(ctx, actor, authz.PermDeleteTask, scope)
	if !authz.IsDeny(err) {
		t.Errorf("ungranted permission: want deny, got %v", err)
	}

	stranger := &authz.Actor{ID: users[2], Role: "member", RolePermissions: authz.NewSet()}
	err = resolver.Authorize(ctx, stranger, authz.PermViewTasks, scope)
	if !authz.IsDeny(err) {
		t.Errorf("no grant record: want deny, got %v", err)
	}
}
