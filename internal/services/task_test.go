package services

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/models"
)

func TestProjectOfTask(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)
	ctx := context.Background()

	task := models.Task{ProjectID: projectID, Title: "wire the panel", CreatedBy: users[0]}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	got, err := service.ProjectOfTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("ProjectOfTask: %v", err)
	}
	if got != projectID {
		t.Errorf("got project %d, want %d", got, projectID)
	}
}

func TestProjectOfTask_MissingTask(t *testing.T) {
	db := newTestDB(t)
	service := NewTaskService(db, nil)

	_, err := service.ProjectOfTask(context.Background(), 4242)
	var nf *authz.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if authz.IsDeny(err) {
		t.Error("a missing task is not a denial")
	}
}

func TestProjectOfTask_OrphanTask(t *testing.T) {
	db := newTestDB(t)
	_, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)

	// Bypass the model layer to plant a task without a project reference
	orphan := models.Task{Title: "orphan", CreatedBy: users[0]}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	_, err := service.ProjectOfTask(context.Background(), orphan.ID)
	var iv *authz.InvariantError
	if !errors.As(err, &iv) {
		t.Fatalf("want InvariantError, got %v", err)
	}
	if authz.IsDeny(err) {
		t.Error("corrupted state is not a denial")
	}
}

func TestTaskCreate_RejectsArchivedProject(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)

	if err := db.Model(&models.Project{}).Where("id = ?", projectID).
		Update("status", models.ProjectStatusArchived).Error; err != nil {
		t.Fatalf("archive project: %v", err)
	}

	_, err := service.Create(&CreateTaskRequest{ProjectID: projectID, Title: "late"}, users[0])
	if err == nil {
		t.Fatal("expected error creating task in archived project")
	}
}

func TestTaskCreate_RejectsForeignCategory(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)

	other := models.Project{Name: "other", CreatedBy: users[0], Status: models.ProjectStatusActive}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	category := models.Category{ProjectID: other.ID, Name: "backlog"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	_, err := service.Create(&CreateTaskRequest{
		ProjectID:  projectID,
		CategoryID: &category.ID,
		Title:      "misfiled",
	}, users[0])
	if err == nil {
		t.Fatal("expected error for category from another project")
	}
}

func TestTaskUpdate_ProjectIsImmutable(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)

	task, err := service.Create(&CreateTaskRequest{ProjectID: projectID, Title: "pinned"}, users[0])
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	desc := "updated"
	if _, err := service.Update(task.ID, &UpdateTaskRequest{Description: &desc}, users[0]); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := service.GetByID(task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.ProjectID != projectID {
		t.Errorf("project reference changed: %d", reloaded.ProjectID)
	}
	if reloaded.Description != "updated" {
		t.Errorf("description not updated: %q", reloaded.Description)
	}
}

func TestTaskDelete_RemovesComments(t *testing.T) {
	db := newTestDB(t)
	projectID, users := seedProjectAndUsers(t, db)
	service := NewTaskService(db, nil)

	task, err := service.Create(&CreateTaskRequest{ProjectID: projectID, Title: "short-lived"}, users[0])
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	comment := models.Comment{TaskID: task.ID, UserID: users[1], Body: "nope"}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	if err := service.Delete(task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int64
	db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("comments must not outlive their task, %d left", count)
	}
}
