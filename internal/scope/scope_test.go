package scope

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func admin(id, tenant uint) *principal.Principal {
	return &principal.Principal{ID: id, Kind: principal.KindUser, TenantID: tenant, Role: model.RoleAdmin}
}

func member(id, tenant uint) *principal.Principal {
	return &principal.Principal{ID: id, Kind: principal.KindUser, TenantID: tenant, Role: model.RoleMember}
}

func uintPtr(v uint) *uint { return &v }

func lead(tenant uint, owner *uint) *model.Lead {
	return &model.Lead{TenantID: tenant, OwnerID: owner}
}

func TestCanAccessTenantBoundaryIsAbsolute(t *testing.T) {
	// Neither role nor ownership crosses tenants.
	entities := []*model.Lead{
		lead(2, nil),
		lead(2, uintPtr(1)),
		lead(2, uintPtr(99)),
	}

	for _, e := range entities {
		assert.False(t, CanAccess(admin(1, 1), e))
		assert.False(t, CanAccess(member(1, 1), e))
	}
}

func TestCanAccessAdminSeesWholeTenant(t *testing.T) {
	p := admin(1, 1)

	assert.True(t, CanAccess(p, lead(1, nil)))
	assert.True(t, CanAccess(p, lead(1, uintPtr(1))))
	assert.True(t, CanAccess(p, lead(1, uintPtr(42))))
}

func TestCanAccessMemberOwnerOrUnassigned(t *testing.T) {
	p := member(5, 1)

	assert.True(t, CanAccess(p, lead(1, uintPtr(5))), "own record")
	assert.True(t, CanAccess(p, lead(1, nil)), "unassigned record")
	assert.False(t, CanAccess(p, lead(1, uintPtr(9))), "someone else's record")
}

func TestRequireAccessDisguisesDenialAsNotFound(t *testing.T) {
	err := RequireAccess(member(5, 1), lead(1, uintPtr(9)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = RequireAccess(member(5, 1), lead(2, uintPtr(5)))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.NoError(t, RequireAccess(member(5, 1), lead(1, uintPtr(5))))
}

func TestDefaultOwner(t *testing.T) {
	p := member(5, 1)

	owner := DefaultOwner(p, nil)
	require.NotNil(t, owner)
	assert.Equal(t, uint(5), *owner)

	owner = DefaultOwner(p, uintPtr(9))
	require.NotNil(t, owner)
	assert.Equal(t, uint(9), *owner)
}

func TestOwnerForUpdate(t *testing.T) {
	current := uintPtr(5)

	t.Run("member keeps current owner when naming someone else", func(t *testing.T) {
		got := OwnerForUpdate(member(5, 1), current, uintPtr(9))
		require.NotNil(t, got)
		assert.Equal(t, uint(5), *got)
	})

	t.Run("member may claim for themselves", func(t *testing.T) {
		got := OwnerForUpdate(member(5, 1), nil, uintPtr(5))
		require.NotNil(t, got)
		assert.Equal(t, uint(5), *got)
	})

	t.Run("admin may reassign freely", func(t *testing.T) {
		got := OwnerForUpdate(admin(1, 1), current, uintPtr(9))
		require.NotNil(t, got)
		assert.Equal(t, uint(9), *got)
	})

	t.Run("nil request keeps current owner", func(t *testing.T) {
		got := OwnerForUpdate(admin(1, 1), current, nil)
		assert.Equal(t, current, got)
	})
}

// dryRunDB opens a gorm session over a sqlmock connection with DryRun
// enabled, so queries build SQL without touching a database.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true})
	require.NoError(t, err)

	return db
}

func TestVisiblePredicateSQL(t *testing.T) {
	db := dryRunDB(t)

	t.Run("admin filters by tenant only", func(t *testing.T) {
		var leads []model.Lead
		stmt := db.Session(&gorm.Session{DryRun: true}).
			Scopes(Visible(admin(1, 7))).Find(&leads).Statement

		sql := stmt.SQL.String()
		assert.Contains(t, sql, "tenant_id = ")
		assert.NotContains(t, sql, "owner_id")
		assert.Contains(t, stmt.Vars, interface{}(uint(7)))
	})

	t.Run("member adds owner-or-unassigned clause", func(t *testing.T) {
		var leads []model.Lead
		stmt := db.Session(&gorm.Session{DryRun: true}).
			Scopes(Visible(member(5, 7))).Find(&leads).Statement

		sql := stmt.SQL.String()
		assert.Contains(t, sql, "tenant_id = ")
		assert.Contains(t, sql, "owner_id = ")
		assert.Contains(t, sql, "owner_id IS NULL")
	})

	t.Run("custom columns are honored", func(t *testing.T) {
		var leads []model.Lead
		cols := Columns{Tenant: "org_id", Owner: "assignee_id"}
		stmt := db.Session(&gorm.Session{DryRun: true}).
			Scopes(VisibleIn(member(5, 7), cols)).Find(&leads).Statement

		sql := stmt.SQL.String()
		assert.Contains(t, sql, "org_id = ")
		assert.Contains(t, sql, "assignee_id IS NULL")
	})
}
