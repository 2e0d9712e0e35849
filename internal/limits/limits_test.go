package limits

import (
	"net/http"
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	limits  map[uint]*model.TenantLimit
	counts  map[Metric]int64
	plans   map[uint]string
	created []*model.TenantLimit
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		limits: map[uint]*model.TenantLimit{},
		counts: map[Metric]int64{},
		plans:  map[uint]string{},
	}
}

func (s *fakeStore) FindLimit(tenantID uint) (*model.TenantLimit, error) {
	return s.limits[tenantID], nil
}

func (s *fakeStore) CreateLimit(limit *model.TenantLimit) error {
	s.limits[limit.TenantID] = limit
	s.created = append(s.created, limit)
	return nil
}

func (s *fakeStore) Count(tenantID uint, metric Metric) (int64, error) {
	return s.counts[metric], nil
}

func (s *fakeStore) PlanType(tenantID uint) (string, error) {
	if plan, ok := s.plans[tenantID]; ok {
		return plan, nil
	}
	return model.PlanStarter, nil
}

func TestCheckLimitLeadsAlwaysPass(t *testing.T) {
	store := newFakeStore()
	store.limits[1] = &model.TenantLimit{TenantID: 1, PlanType: model.PlanStarter, MaxLeads: 500}
	store.counts[MetricLeads] = 600

	l := NewLimiter(store, nil)
	assert.NoError(t, l.CheckLimit(1, MetricLeads))
}

func TestCheckLimitBlocksAtCap(t *testing.T) {
	store := newFakeStore()
	store.limits[1] = &model.TenantLimit{
		TenantID: 1, PlanType: model.PlanStarter,
		MaxLeads: 1000, MaxUsers: 3, MaxItems: 2, MaxAPICalls: 10000,
	}
	store.counts[MetricItems] = 2

	l := NewLimiter(store, nil)
	err := l.CheckLimit(1, MetricItems)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))
	assert.Contains(t, err.Error(), "limit reached: 2/2")

	// Dropping below the cap allows one more creation.
	store.counts[MetricItems] = 1
	assert.NoError(t, l.CheckLimit(1, MetricItems))
}

func TestCheckLimitIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.limits[1] = &model.TenantLimit{
		TenantID: 1, PlanType: model.PlanStarter,
		MaxItems: 5,
	}
	store.counts[MetricItems] = 3

	l := NewLimiter(store, nil)
	for i := 0; i < 10; i++ {
		assert.NoError(t, l.CheckLimit(1, MetricItems))
	}
	assert.Empty(t, store.created, "no extra rows created on repeat checks")
}

func TestCheckLimitUnlimitedSkipsCounting(t *testing.T) {
	store := newFakeStore()
	store.limits[1] = &model.TenantLimit{
		TenantID: 1, PlanType: model.PlanPro,
		MaxItems: model.Unlimited,
	}
	store.counts[MetricItems] = 1 << 30

	l := NewLimiter(store, nil)
	assert.NoError(t, l.CheckLimit(1, MetricItems))
}

func TestCheckLimitEnterpriseIgnoresStoredCaps(t *testing.T) {
	store := newFakeStore()
	stored := &model.TenantLimit{
		TenantID: 1, PlanType: model.PlanEnterprise,
		MaxLeads: 500, MaxUsers: 500, MaxItems: 500, MaxAPICalls: 500,
	}
	store.limits[1] = stored
	store.counts[MetricUsers] = 600

	l := NewLimiter(store, nil)
	assert.NoError(t, l.CheckLimit(1, MetricUsers))

	// The stored row is not mutated by the per-check override.
	assert.Equal(t, 500, stored.MaxUsers)
}

func TestCheckLimitLazilyMaterializesDefaults(t *testing.T) {
	store := newFakeStore()
	store.plans[7] = model.PlanPro
	store.counts[MetricUsers] = 0

	l := NewLimiter(store, nil)
	require.NoError(t, l.CheckLimit(7, MetricUsers))

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, uint(7), created.TenantID)
	assert.Equal(t, model.PlanPro, created.PlanType)
	assert.Equal(t, PlanLimitDefaults[model.PlanPro].MaxUsers, created.MaxUsers)

	// Subsequent checks reuse the materialized row.
	require.NoError(t, l.CheckLimit(7, MetricUsers))
	assert.Len(t, store.created, 1)
}

func TestCheckLimitUnknownPlanFallsBackToStarter(t *testing.T) {
	store := newFakeStore()
	store.plans[7] = "LEGACY"
	store.counts[MetricUsers] = 0

	l := NewLimiter(store, nil)
	require.NoError(t, l.CheckLimit(7, MetricUsers))

	require.Len(t, store.created, 1)
	assert.Equal(t, model.PlanStarter, store.created[0].PlanType)
}

func TestCheckLimitUsersAtCap(t *testing.T) {
	store := newFakeStore()
	store.counts[MetricUsers] = 3

	l := NewLimiter(store, nil)
	err := l.CheckLimit(1, MetricUsers)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))
}
