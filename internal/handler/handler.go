// Package handler contains the REST handlers. Handlers bind requests,
// delegate authorization to the scope engine and limits to the usage
// limiter, perform the mutation, and record audit entries.
package handler

import (
	"strconv"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/labstack/echo/v4"
)

// currentPrincipal fetches the principal placed in the context by the auth
// middleware.
func currentPrincipal(c echo.Context) (*principal.Principal, error) {
	p, ok := principal.FromEcho(c)
	if !ok {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("record not found")
	}
	return uint(id), nil
}

// formatOwner renders an owner pointer for audit values.
func formatOwner(owner *uint) string {
	if owner == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*owner), 10)
}

// optString maps an empty request string to NULL so optional unique
// columns never collide on ''.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formatString renders a nullable string for audit values.
func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
