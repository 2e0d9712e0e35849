// Package principal resolves bearer credentials into authenticated actors.
// The resolver runs once per request; its result is the only source of
// identity for every downstream authorization decision.
package principal

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/jwtutil"
	"github.com/labstack/echo/v4"
)

// Kind distinguishes the two disjoint principal populations.
type Kind string

const (
	KindUser    Kind = jwtutil.KindUser
	KindPartner Kind = jwtutil.KindPartner
)

// Principal is an authenticated actor. Exactly one of the two kinds applies:
// tenant users carry TenantID and Role, partner users carry PartnerID and
// IsOwner. A resolved principal is always active; inactive accounts are
// rejected during resolution, never silently filtered later.
type Principal struct {
	ID    uint
	Kind  Kind
	Email string

	// Tenant user fields
	TenantID uint
	Role     string

	// Partner user fields
	PartnerID uint
	IsOwner   bool
}

// IsAdmin reports whether the principal is a tenant admin.
func (p *Principal) IsAdmin() bool {
	return p.Kind == KindUser && p.Role == model.RoleAdmin
}

const contextKey = "principal"

// ToEcho stores the principal in the Echo context.
func ToEcho(c echo.Context, p *Principal) {
	c.Set(contextKey, p)
}

// FromEcho retrieves the principal placed in the Echo context by the auth
// middleware.
func FromEcho(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(contextKey).(*Principal)
	return p, ok
}
