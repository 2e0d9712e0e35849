package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", Unauthenticated("missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("inactive account"), http.StatusForbidden},
		{"not found", NotFound("record not found"), http.StatusNotFound},
		// Conflict intentionally maps to 400, not 409.
		{"conflict", Conflict("sku already exists"), http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("loading: %w", Forbidden("limit reached")), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWriteSetsChallengeOn401(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Write(c, Unauthenticated("missing token")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.Contains(t, rec.Body.String(), "missing token")
}

func TestWriteHidesInternalDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Write(c, Internal(errors.New("pq: connection refused"))))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
