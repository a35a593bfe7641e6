package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/pkg/logger"
	"github.com/taskhive/taskhive/pkg/response"
)

// RequireGlobal gates a route on a global role permission: a plain
// membership test against the actor's role permission set.
func RequireGlobal(resolver *authz.Resolver, perm authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		if err := resolver.AuthorizeGlobal(actor, perm); err != nil {
			response.Forbidden(c, "permission denied")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireProject gates a route on a project-scoped permission. The project
// scope is discovered from the request (route param, body project field,
// projectId query param, or derived from a task id) and the resolver decides.
// Lookup failures are surfaced as their own error classes, never folded into
// a 403: a denial and "the system could not decide" are different answers.
func RequireProject(resolver *authz.Resolver, perm authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		scope := ExtractScope(c)

		err := resolver.Authorize(c.Request.Context(), actor, perm, scope)
		if err == nil {
			c.Next()
			return
		}

		var (
			notFound  *authz.NotFoundError
			invariant *authz.InvariantError
		)
		switch {
		case authz.IsDeny(err):
			response.Forbidden(c, "permission denied")
		case errors.Is(err, authz.ErrMissingScope):
			response.BadRequest(c, "request carries no project scope")
		case errors.As(err, &notFound):
			response.NotFound(c, notFound.Error())
		case errors.As(err, &invariant):
			logger.Error().
				Err(err).
				Uint("user_id", actor.ID).
				Str("path", c.Request.URL.Path).
				Msg("data integrity failure during authorization")
			response.ServerError(c, "data integrity failure")
		default:
			logger.Error().
				Err(err).
				Str("path", c.Request.URL.Path).
				Msg("authorization lookup failed")
			response.ServerError(c, "authorization could not be determined")
		}
		c.Abort()
	}
}

// ExtractScope pulls the project-scope hint out of the request. The body is
// restored after reading so handlers can still bind it.
func ExtractScope(c *gin.Context) authz.Scope {
	scope := authz.Scope{
		RouteProjectID: paramUint(c, "project_id"),
		BodyProjectID:  bodyProjectID(c),
		QueryProjectID: queryUint(c, "projectId", "project_id"),
	}

	if taskID := paramUint(c, "task_id"); taskID != 0 {
		scope.TaskID = taskID
	} else {
		scope.TaskID = paramUint(c, "id")
	}

	return scope
}

func paramUint(c *gin.Context, name string) uint {
	v := c.Param(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

func queryUint(c *gin.Context, names ...string) uint {
	for _, name := range names {
		v := c.Query(name)
		if v == "" {
			continue
		}
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return 0
}

// bodyProjectID reads the "project" field from a JSON body, restoring the
// body afterwards so binding in the handler still works.
func bodyProjectID(c *gin.Context) uint {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return 0
	}
	if !strings.Contains(c.ContentType(), "application/json") {
		return 0
	}

	bodyBytes, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	if err != nil {
		return 0
	}

	var body map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return 0
	}

	switch v := body["project"].(type) {
	case float64:
		if v > 0 {
			return uint(v)
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return 0
}
