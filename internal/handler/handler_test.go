package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestCurrentPrincipal(t *testing.T) {
	c := newContext(t, "/")

	_, err := currentPrincipal(c)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	principal.ToEcho(c, &principal.Principal{ID: 7, Kind: principal.KindUser, TenantID: 3})
	p, err := currentPrincipal(c)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.ID)
	assert.Equal(t, uint(3), p.TenantID)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/", 50, 0},
		{"explicit", "/?limit=20&offset=40", 20, 40},
		{"limit over cap falls back", "/?limit=500", 50, 0},
		{"zero limit falls back", "/?limit=0", 50, 0},
		{"negative offset falls back", "/?offset=-5", 50, 0},
		{"garbage values fall back", "/?limit=abc&offset=xyz", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := pagination(newContext(t, tt.target))
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestPathID(t *testing.T) {
	c := newContext(t, "/")
	c.SetParamNames("id")
	c.SetParamValues("42")

	id, err := pathID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	c.SetParamValues("not-a-number")
	_, err = pathID(c)
	require.Error(t, err)
	// A malformed id is indistinguishable from a missing record.
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestFormatOwner(t *testing.T) {
	assert.Equal(t, "", formatOwner(nil))
	id := uint(9)
	assert.Equal(t, "9", formatOwner(&id))
}

func TestOptString(t *testing.T) {
	// Optional unique columns must store NULL when absent, never '':
	// repeated NULLs don't collide on a unique index, repeated '' do.
	assert.Nil(t, optString(""))

	got := optString("12.345.678/0001-90")
	require.NotNil(t, got)
	assert.Equal(t, "12.345.678/0001-90", *got)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "", formatString(nil))
	assert.Equal(t, "12.345.678/0001-90", formatString(optString("12.345.678/0001-90")))
}
