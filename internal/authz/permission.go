package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a single grantable action token. The vocabulary is closed:
// values outside the constants below are rejected at construction time by
// Parse, so an invalid token is an error, not a silent no-op at check time.
type Permission string

const (
	PermCreateProject     Permission = "create_project"
	PermEditProject       Permission = "edit_project"
	PermDeleteProject     Permission = "delete_project"
	PermViewProject       Permission = "view_project"
	PermCreateTask        Permission = "create_task"
	PermEditTask          Permission = "edit_task"
	PermDeleteTask        Permission = "delete_task"
	PermViewTasks         Permission = "view_tasks"
	PermComment           Permission = "comment"
	PermManageCategories  Permission = "manage_categories"
	PermManageFields      Permission = "manage_fields"
	PermViewReports       Permission = "view_reports"
	PermManageUsers       Permission = "manage_users"
	PermAssignRoles       Permission = "assign_roles"
	PermManagePermissions Permission = "manage_permissions"
)

// All returns every known permission token.
func All() []Permission {
	return []Permission{
		PermCreateProject,
		PermEditProject,
		PermDeleteProject,
		PermViewProject,
		PermCreateTask,
		PermEditTask,
		PermDeleteTask,
		PermViewTasks,
		PermComment,
		PermManageCategories,
		PermManageFields,
		PermViewReports,
		PermManageUsers,
		PermAssignRoles,
		PermManagePermissions,
	}
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{})
	for _, p := range All() {
		m[p] = struct{}{}
	}
	return m
}()

// Valid reports whether p is part of the permission vocabulary.
func (p Permission) Valid() bool {
	_, ok := known[p]
	return ok
}

func (p Permission) String() string { return string(p) }

// Parse converts a raw token into a Permission, rejecting unknown tokens.
func Parse(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission token %q", s)
	}
	return p, nil
}

// ParseList converts raw tokens into a Set, rejecting any unknown token.
func ParseList(tokens []string) (Set, error) {
	set := make(Set, len(tokens))
	for _, t := range tokens {
		p, err := Parse(t)
		if err != nil {
			return nil, err
		}
		set.Add(p)
	}
	return set, nil
}

// Set is an unordered collection of permission tokens.
type Set map[Permission]struct{}

// NewSet builds a Set from the given permissions.
func NewSet(perms ...Permission) Set {
	set := make(Set, len(perms))
	for _, p := range perms {
		set.Add(p)
	}
	return set
}

func (s Set) Add(p Permission) { s[p] = struct{}{} }

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// List returns the tokens in deterministic (sorted) order.
func (s Set) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted tokens as plain strings.
func (s Set) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = string(p)
	}
	return out
}

// Encode serializes the set as a comma-joined token list for storage.
func (s Set) Encode() string {
	return strings.Join(s.Strings(), ",")
}

// DecodeSet parses a comma-joined token list produced by Encode. Unknown
// tokens are an error so corrupted rows surface instead of silently losing
// grants.
func DecodeSet(encoded string) (Set, error) {
	if strings.TrimSpace(encoded) == "" {
		return NewSet(), nil
	}
	return ParseList(strings.Split(encoded, ","))
}
