// Package scope implements tenant and ownership visibility rules shared by
// every handler. The tenant boundary is absolute: no role widens visibility
// across tenants. Within a tenant, admins see every record while members
// see records they own plus unassigned ones, so unclaimed work stays
// discoverable by the whole team.
package scope

import (
	"fmt"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"gorm.io/gorm"
)

// TenancyAware is implemented by every record carrying tenant and owner
// columns. Models expose typed accessors instead of reflective field lookup.
type TenancyAware interface {
	TenantRef() uint
	OwnerRef() *uint
}

// Columns names the tenant and owner columns of an entity table. Nearly
// every table uses the defaults.
type Columns struct {
	Tenant string
	Owner  string
}

// DefaultColumns is the column pair used by all standard CRM tables.
var DefaultColumns = Columns{Tenant: "tenant_id", Owner: "owner_id"}

// Visible returns a gorm scope restricting a query to records the principal
// may see.
func Visible(p *principal.Principal) func(*gorm.DB) *gorm.DB {
	return VisibleIn(p, DefaultColumns)
}

// VisibleIn is Visible for tables with non-standard column names.
func VisibleIn(p *principal.Principal, cols Columns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where(fmt.Sprintf("%s = ?", cols.Tenant), p.TenantID)
		if !p.IsAdmin() {
			db = db.Where(fmt.Sprintf("%s = ? OR %s IS NULL", cols.Owner, cols.Owner), p.ID)
		}
		return db
	}
}

// CanAccess reports whether the principal may act on a single record.
func CanAccess(p *principal.Principal, e TenancyAware) bool {
	if e.TenantRef() != p.TenantID {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	owner := e.OwnerRef()
	return owner == nil || *owner == p.ID
}

// RequireAccess fails with NotFound when access is denied. The denial is
// reported as absence so that out-of-tenant and other-owner records cannot
// be probed for existence.
func RequireAccess(p *principal.Principal, e TenancyAware) error {
	if !CanAccess(p, e) {
		return apperr.NotFound("record not found")
	}
	return nil
}

// DefaultOwner resolves the owner for a record being created: the
// requested owner when the caller supplied one, otherwise the principal.
func DefaultOwner(p *principal.Principal, requested *uint) *uint {
	if requested != nil {
		return requested
	}
	id := p.ID
	return &id
}

// OwnerForUpdate resolves an owner reassignment. Admins may assign anyone.
// Members may only claim a record for themselves; a request naming another
// user is silently ignored and the current owner kept.
func OwnerForUpdate(p *principal.Principal, current, requested *uint) *uint {
	if requested == nil {
		return current
	}
	if p.IsAdmin() {
		return requested
	}
	if *requested == p.ID {
		return requested
	}
	return current
}
