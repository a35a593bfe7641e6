package authz

import (
	"context"
	"errors"
	"testing"
)

type grantKey struct {
	projectID uint
	userID    uint
}

// fakeGrants is an in-memory GrantSource.
type fakeGrants struct {
	grants map[grantKey]Set
	err    error
}

func (f *fakeGrants) GrantSet(_ context.Context, projectID, userID uint) (Set, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	set, ok := f.grants[grantKey{projectID, userID}]
	return set, ok, nil
}

// fakeTasks is an in-memory ProjectScopeLookup.
type fakeTasks struct {
	projects map[uint]uint // taskID -> projectID; 0 means task exists without project
}

func (f *fakeTasks) ProjectOfTask(_ context.Context, taskID uint) (uint, error) {
	projectID, ok := f.projects[taskID]
	if !ok {
		return 0, &NotFoundError{Resource: "task", ID: taskID}
	}
	if projectID == 0 {
		return 0, &InvariantError{Message: "task has no project reference"}
	}
	return projectID, nil
}

func newTestResolver(grants map[grantKey]Set, tasks map[uint]uint) *Resolver {
	return NewResolver(
		&fakeGrants{grants: grants},
		&fakeTasks{projects: tasks},
		[]string{"admin", "manager", "Super Admin"},
	)
}

func TestAuthorize_PrivilegedBypass(t *testing.T) {
	// No grants at all: privileged roles must still be allowed everything.
	r := newTestResolver(nil, nil)

	for _, role := range []string{"admin", "manager", "Super Admin"} {
		actor := &Actor{ID: 1, Role: role}
		for _, perm := range All() {
			if err := r.Authorize(context.Background(), actor, perm, Scope{RouteProjectID: 9}); err != nil {
				t.Errorf("role %q perm %q: expected allow, got %v", role, perm, err)
			}
		}
		// Even with no scope at all.
		if err := r.Authorize(context.Background(), actor, PermEditTask, Scope{}); err != nil {
			t.Errorf("role %q: expected allow without scope, got %v", role, err)
		}
	}
}

func TestResolveProjectID_Precedence(t *testing.T) {
	r := newTestResolver(nil, map[uint]uint{7: 40})

	tests := []struct {
		name  string
		scope Scope
		want  uint
	}{
		{"route wins over body", Scope{RouteProjectID: 10, BodyProjectID: 20}, 10},
		{"route wins over all", Scope{RouteProjectID: 10, BodyProjectID: 20, QueryProjectID: 30, TaskID: 7}, 10},
		{"body wins over query", Scope{BodyProjectID: 20, QueryProjectID: 30}, 20},
		{"query wins over task", Scope{QueryProjectID: 30, TaskID: 7}, 30},
		{"task derived", Scope{TaskID: 7}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveProjectID(context.Background(), tt.scope)
			if err != nil {
				t.Fatalf("ResolveProjectID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveProjectID() = %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestResolveProjectID_TaskNotFound(t *testing.T) {
	r := newTestResolver(nil, map[uint]uint{})

	_, err := r.ResolveProjectID(context.Background(), Scope{TaskID: 99})
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nfe.Resource != "task" || nfe.ID != 99 {
		t.Errorf("unexpected NotFoundError contents: %+v", nfe)
	}
}

func TestResolveProjectID_TaskWithoutProject(t *testing.T) {
	r := newTestResolver(nil, map[uint]uint{5: 0})

	_, err := r.ResolveProjectID(context.Background(), Scope{TaskID: 5})
	var ive *InvariantError
	if !errors.As(err, &ive) {
		t.Fatalf("expected *InvariantError, got %v", err)
	}
}

func TestResolveProjectID_MissingScope(t *testing.T) {
	r := newTestResolver(nil, nil)

	_, err := r.ResolveProjectID(context.Background(), Scope{})
	if !errors.Is(err, ErrMissingScope) {
		t.Errorf("expected ErrMissingScope, got %v", err)
	}
}

func TestAuthorize_GrantRoundTrip(t *testing.T) {
	grants := map[grantKey]Set{
		{projectID: 3, userID: 8}: NewSet(PermEditTask),
	}
	r := newTestResolver(grants, nil)
	actor := &Actor{ID: 8, Role: "member"}

	if err := r.Authorize(context.Background(), actor, PermEditTask, Scope{RouteProjectID: 3}); err != nil {
		t.Errorf("granted permission: expected allow, got %v", err)
	}

	err := r.Authorize(context.Background(), actor, PermDeleteTask, Scope{RouteProjectID: 3})
	if !IsDeny(err) {
		t.Errorf("ungranted permission: expected deny, got %v", err)
	}
}

func TestAuthorize_NoGrantRecord(t *testing.T) {
	r := newTestResolver(map[grantKey]Set{}, nil)
	actor := &Actor{ID: 8, Role: "member"}

	err := r.Authorize(context.Background(), actor, PermViewTasks, Scope{RouteProjectID: 3})
	var de *DenyError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DenyError, got %v", err)
	}
	if de.Reason != "no project-level grant" {
		t.Errorf("unexpected deny reason %q", de.Reason)
	}
}

func TestAuthorize_MissingScopeIsErrorNotDeny(t *testing.T) {
	r := newTestResolver(nil, nil)
	actor := &Actor{ID: 8, Role: "member"}

	err := r.Authorize(context.Background(), actor, PermViewTasks, Scope{})
	if err == nil {
		t.Fatal("expected error, got allow")
	}
	if IsDeny(err) {
		t.Fatalf("missing scope must not surface as a deny: %v", err)
	}
	if !errors.Is(err, ErrMissingScope) {
		t.Errorf("expected ErrMissingScope, got %v", err)
	}
}

func TestAuthorize_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	r := NewResolver(
		&fakeGrants{err: storeErr},
		&fakeTasks{},
		[]string{"admin"},
	)
	actor := &Actor{ID: 8, Role: "member"}

	err := r.Authorize(context.Background(), actor, PermViewTasks, Scope{RouteProjectID: 3})
	if err == nil {
		t.Fatal("expected error, got allow")
	}
	if IsDeny(err) {
		t.Fatalf("store failure must not surface as a deny: %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

// Global role permissions must not leak into project scope, and project
// grants must not leak into global checks.
func TestAuthorize_TwoTierSeparation(t *testing.T) {
	grants := map[grantKey]Set{
		{projectID: 3, userID: 8}: NewSet(PermCreateTask, PermViewTasks),
	}
	r := newTestResolver(grants, nil)
	actor := &Actor{
		ID:              8,
		Role:            "member",
		RolePermissions: NewSet(PermComment),
	}
	ctx := context.Background()

	if err := r.Authorize(ctx, actor, PermCreateTask, Scope{RouteProjectID: 3}); err != nil {
		t.Errorf("project grant: expected allow, got %v", err)
	}

	// Role has "comment" globally, but there is no project grant for it.
	if err := r.Authorize(ctx, actor, PermComment, Scope{RouteProjectID: 3}); !IsDeny(err) {
		t.Errorf("global role permission must not apply in project scope, got %v", err)
	}

	if err := r.AuthorizeGlobal(actor, PermComment); err != nil {
		t.Errorf("AuthorizeGlobal: expected allow, got %v", err)
	}

	// Project grant must not satisfy a global check.
	if err := r.AuthorizeGlobal(actor, PermCreateTask); !IsDeny(err) {
		t.Errorf("project grant must not apply globally, got %v", err)
	}
}

func TestAuthorizeGlobal_NoPrivilegedShortCircuit(t *testing.T) {
	r := newTestResolver(nil, nil)

	// Privileged by role name, but the role set itself lacks the token.
	actor := &Actor{ID: 1, Role: "admin", RolePermissions: NewSet()}
	if err := r.AuthorizeGlobal(actor, PermManageUsers); !IsDeny(err) {
		t.Errorf("AuthorizeGlobal is a plain membership test, got %v", err)
	}
}

func TestNewResolver_ConfiguredPrivilegedSet(t *testing.T) {
	r := NewResolver(&fakeGrants{}, &fakeTasks{}, []string{"operator"})

	if !r.IsPrivileged(&Actor{Role: "operator"}) {
		t.Error("configured role should be privileged")
	}
	if r.IsPrivileged(&Actor{Role: "admin"}) {
		t.Error("admin is not privileged unless configured")
	}
}
