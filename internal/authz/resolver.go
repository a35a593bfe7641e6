package authz

import (
	"context"
	"fmt"
)

// Actor is the authenticated user on whose behalf a request runs. It is
// resolved upstream (JWT middleware) and carries the global role name plus
// that role's permission set; per-project authority is looked up separately.
type Actor struct {
	ID              uint
	Role            string
	RolePermissions Set
}

// Scope is the project-scope hint extracted from a request. Zero fields mean
// "not supplied". Precedence during resolution: route param, then body
// project field, then projectId query param, then task-derived.
type Scope struct {
	RouteProjectID uint
	BodyProjectID  uint
	QueryProjectID uint
	TaskID         uint
}

// GrantSource looks up the per-(project,user) permission grant. The second
// return value reports whether a grant record exists at all.
type GrantSource interface {
	GrantSet(ctx context.Context, projectID, userID uint) (Set, bool, error)
}

// ProjectScopeLookup derives a project id from a task id. Implementations
// return *NotFoundError when the task does not exist and *InvariantError
// when the task exists but carries no project reference.
type ProjectScopeLookup interface {
	ProjectOfTask(ctx context.Context, taskID uint) (uint, error)
}

// Resolver makes authorization decisions by combining the privileged-role
// short-circuit with per-project grant lookups.
type Resolver struct {
	grants     GrantSource
	tasks      ProjectScopeLookup
	privileged map[string]struct{}
}

// NewResolver builds a Resolver. privilegedRoles is the configured set of
// global role names that bypass per-permission checks entirely.
func NewResolver(grants GrantSource, tasks ProjectScopeLookup, privilegedRoles []string) *Resolver {
	priv := make(map[string]struct{}, len(privilegedRoles))
	for _, r := range privilegedRoles {
		priv[r] = struct{}{}
	}
	return &Resolver{grants: grants, tasks: tasks, privileged: priv}
}

// IsPrivileged reports whether the actor's global role bypasses all
// per-permission and per-project checks.
func (r *Resolver) IsPrivileged(actor *Actor) bool {
	_, ok := r.privileged[actor.Role]
	return ok
}

// ResolveProjectID determines which project a request concerns, applying the
// scope precedence order. Returns ErrMissingScope when no source yields a
// project id.
func (r *Resolver) ResolveProjectID(ctx context.Context, scope Scope) (uint, error) {
	switch {
	case scope.RouteProjectID != 0:
		return scope.RouteProjectID, nil
	case scope.BodyProjectID != 0:
		return scope.BodyProjectID, nil
	case scope.QueryProjectID != 0:
		return scope.QueryProjectID, nil
	case scope.TaskID != 0:
		return r.tasks.ProjectOfTask(ctx, scope.TaskID)
	}
	return 0, ErrMissingScope
}

// Authorize decides whether the actor may perform a project-scoped action
// requiring perm. A nil return means allow; *DenyError means the permission
// is not granted; any other error means the decision could not be made
// (missing scope, missing task, integrity failure, store failure) and must
// not be reported as a denial.
//
// Past the privileged short-circuit the actor's global role permissions are
// deliberately not consulted: project-scoped actions are governed solely by
// the explicit per-project grant.
func (r *Resolver) Authorize(ctx context.Context, actor *Actor, perm Permission, scope Scope) error {
	if r.IsPrivileged(actor) {
		return nil
	}

	projectID, err := r.ResolveProjectID(ctx, scope)
	if err != nil {
		return err
	}

	set, exists, err := r.grants.GrantSet(ctx, projectID, actor.ID)
	if err != nil {
		return fmt.Errorf("grant lookup for project %d: %w", projectID, err)
	}
	if !exists {
		return &DenyError{Reason: "no project-level grant"}
	}
	if !set.Has(perm) {
		return &DenyError{Reason: "permission not granted"}
	}
	return nil
}

// AuthorizeGlobal decides a purely global action: a plain membership test of
// perm in the actor's role permission set. No project lookup and no
// privileged short-circuit beyond that membership test itself.
func (r *Resolver) AuthorizeGlobal(actor *Actor, perm Permission) error {
	if actor.RolePermissions.Has(perm) {
		return nil
	}
	return &DenyError{Reason: "permission not granted"}
}
