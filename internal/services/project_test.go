package services

import (
	"context"
	"testing"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
)

func TestProjectCreate_GrantsCreatorAndMembers(t *testing.T) {
	db := newTestDB(t)
	_, users := seedProjectAndUsers(t, db)
	grants := NewGrantService(db)
	service := NewProjectService(db, grants)
	ctx := context.Background()

	project, err := service.Create(&CreateProjectRequest{
		Name: "orion",
		Members: []MemberGrant{
			{UserID: users[1], Permissions: []string{"view_tasks", "comment"}},
			{UserID: users[2], Permissions: []string{}},
		},
	}, users[0])
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Creator gets a full grant
	set, exists, err := grants.GrantSet(ctx, project.ID, users[0])
	if err != nil || !exists {
		t.Fatalf("creator grant: exists=%v err=%v", exists, err)
	}
	if !set.Has(authz.PermManagePermissions) || !set.Has(authz.PermDeleteProject) {
		t.Errorf("creator grant incomplete: %v", set.List())
	}

	// Listed member gets exactly what was asked for
	set, exists, err = grants.GrantSet(ctx, project.ID, users[1])
	if err != nil || !exists {
		t.Fatalf("member grant: exists=%v err=%v", exists, err)
	}
	if !set.Has(authz.PermComment) || set.Has(authz.PermDeleteProject) {
		t.Errorf("member grant wrong: %v", set.List())
	}

	// A member listed with no tokens gets no grant row
	_, exists, _ = grants.GrantSet(ctx, project.ID, users[2])
	if exists {
		t.Error("empty member set must not produce a grant record")
	}
}

func TestProjectCreate_InvalidMemberTokenRollsBack(t *testing.T) {
	db := newTestDB(t)
	_, users := seedProjectAndUsers(t, db)
	service := NewProjectService(db, NewGrantService(db))

	_, err := service.Create(&CreateProjectRequest{
		Name: "doomed",
		Members: []MemberGrant{
			{UserID: users[1], Permissions: []string{"view_tasks", "bogus_token"}},
		},
	}, users[0])
	if err == nil {
		t.Fatal("expected error for unknown permission token")
	}

	var count int64
	db.Model(&models.Project{}).Where("name = ?", "doomed").Count(&count)
	if count != 0 {
		t.Error("project row must not survive a failed member grant")
	}
}

func TestProjectDelete_CascadesGrantsAndTasks(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	grants := NewGrantService(db)
	service := NewProjectService(db, grants)
	ctx := context.Background()

	if _, err := grants.Upsert(projectID, users[1], authz.NewSet(authz.PermComment)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	task := models.Task{ProjectID: projectID, Title: "stale", CreatedBy: users[0]}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	comment := models.Comment{TaskID: task.ID, UserID: users[1], Body: "hi"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	if err := service.Delete(projectID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := service.GetByID(projectID); err == nil {
		t.Error("project should be gone")
	}
	_, exists, err := grants.GrantSet(ctx, projectID, users[1])
	if err != nil {
		t.Fatalf("GrantSet: %v", err)
	}
	if exists {
		t.Error("grants must not outlive their project")
	}

	var taskCount int64
	db.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&taskCount)
	if taskCount != 0 {
		t.Error("tasks must not outlive their project")
	}
}

func TestProjectList_RestrictedToGrantHolders(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	grants := NewGrantService(db)
	service := NewProjectService(db, grants)

	other := models.Project{Name: "hidden", CreatedBy: users[0], Status: models.ProjectStatusActive}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if _, err := grants.Upsert(projectID, users[1], authz.NewSet(authz.PermViewProject)); err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	resp, err := service.List(&ProjectListRequest{}, users[1])
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 visible project, got %d", resp.Total)
	}
	if resp.Items[0].ID != projectID {
		t.Errorf("wrong project visible: %d", resp.Items[0].ID)
	}

	// Unrestricted listing sees everything
	resp, err = service.List(&ProjectListRequest{}, 0)
	if err != nil {
		t.Fatalf("List unrestricted: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected 2 projects, got %d", resp.Total)
	}
}
