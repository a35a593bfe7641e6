package authz

import (
	"errors"
	"fmt"
)

// ErrMissingScope means the request carried no project id and no task id to
// derive one from. This is a caller error, distinct from a denial: there is
// nothing to authorize against.
var ErrMissingScope = errors.New("no project scope in request")

// DenyError is an authorization outcome: the actor is authenticated and the
// request is well-formed, but the permission is not granted. It is never
// used for lookup failures; those surface as the error types below.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string {
	return "permission denied: " + e.Reason
}

// IsDeny reports whether err is an authorization denial (as opposed to a
// scope or storage error).
func IsDeny(err error) bool {
	var de *DenyError
	return errors.As(err, &de)
}

// NotFoundError means a referenced resource (e.g. the task used for scope
// discovery) does not exist.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InvariantError signals corrupted state discovered during authorization,
// such as a task without a project reference. It is a server-side integrity
// failure, never the caller's fault, and must not be reported as a denial.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Message
}
