// Package limits gates resource creation against per-tenant plan limits.
// Checks are advisory: they run before a create and block it, never reads
// or updates.
package limits

import (
	"fmt"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"go.uber.org/zap"
)

// Metric identifies a limited resource kind.
type Metric string

const (
	MetricLeads Metric = "leads"
	MetricUsers Metric = "users"
	MetricItems Metric = "items"
	// api_calls is accounted per calendar month by middleware and kept in
	// the limit row, but no request path gates on it yet: limits block
	// creates only, never reads or general traffic.
	MetricAPICalls Metric = "api_calls"
)

// PlanLimitDefaults are the maxima applied when a tenant's limit row is
// lazily materialized. -1 means unlimited.
var PlanLimitDefaults = map[string]model.TenantLimit{
	model.PlanStarter: {
		PlanType:    model.PlanStarter,
		MaxLeads:    1000,
		MaxUsers:    3,
		MaxItems:    100,
		MaxAPICalls: 10000,
	},
	model.PlanPro: {
		PlanType:    model.PlanPro,
		MaxLeads:    10000,
		MaxUsers:    10,
		MaxItems:    1000,
		MaxAPICalls: 100000,
	},
	model.PlanEnterprise: {
		PlanType:    model.PlanEnterprise,
		MaxLeads:    model.Unlimited,
		MaxUsers:    model.Unlimited,
		MaxItems:    model.Unlimited,
		MaxAPICalls: model.Unlimited,
	},
}

// Store is the persistence surface the limiter needs.
type Store interface {
	// FindLimit returns (nil, nil) when the tenant has no limit row yet.
	FindLimit(tenantID uint) (*model.TenantLimit, error)
	CreateLimit(limit *model.TenantLimit) error
	// Count returns the current usage for a metric. Users counts active
	// users only; api_calls counts the current calendar month.
	Count(tenantID uint, metric Metric) (int64, error)
	// PlanType returns the tenant's plan tier.
	PlanType(tenantID uint) (string, error)
}

// Limiter checks tenant resource usage against plan maxima.
type Limiter struct {
	store Store
	log   *zap.Logger
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store, log *zap.Logger) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{store: store, log: log}
}

// CheckLimit reports whether one more resource of the given metric may be
// created for the tenant. Returns nil to allow, Forbidden to block.
func (l *Limiter) CheckLimit(tenantID uint, metric Metric) error {
	// Lead creation is never capped. This is a product decision, not an
	// artifact of the limit math below; keep the short-circuit explicit.
	if metric == MetricLeads {
		return nil
	}

	limit, err := l.loadOrCreate(tenantID)
	if err != nil {
		return apperr.Internal(err)
	}

	max := maxFor(limit, metric)

	// ENTERPRISE is unlimited regardless of stored values. The stored row
	// is left untouched; the override applies to this check only.
	if limit.PlanType == model.PlanEnterprise && max != model.Unlimited {
		max = model.Unlimited
	}

	if max == model.Unlimited {
		return nil
	}

	current, err := l.store.Count(tenantID, metric)
	if err != nil {
		return apperr.Internal(err)
	}

	if current >= int64(max) {
		l.log.Warn("tenant limit reached",
			zap.Uint("tenant_id", tenantID),
			zap.String("metric", string(metric)),
			zap.Int64("current", current),
			zap.Int("max", max))
		return apperr.Forbidden(fmt.Sprintf("limit reached: %d/%d", current, max))
	}

	return nil
}

// loadOrCreate fetches the tenant's limit row, materializing it from the
// plan defaults on first use. Concurrent first checks for the same tenant
// may race to create the row; the defaults are idempotent so the race is
// left as best-effort.
func (l *Limiter) loadOrCreate(tenantID uint) (*model.TenantLimit, error) {
	limit, err := l.store.FindLimit(tenantID)
	if err != nil {
		return nil, err
	}
	if limit != nil {
		return limit, nil
	}

	plan, err := l.store.PlanType(tenantID)
	if err != nil {
		return nil, err
	}

	defaults, ok := PlanLimitDefaults[plan]
	if !ok {
		defaults = PlanLimitDefaults[model.PlanStarter]
	}

	limit = &model.TenantLimit{
		TenantID:    tenantID,
		PlanType:    defaults.PlanType,
		MaxLeads:    defaults.MaxLeads,
		MaxUsers:    defaults.MaxUsers,
		MaxItems:    defaults.MaxItems,
		MaxAPICalls: defaults.MaxAPICalls,
	}

	if err := l.store.CreateLimit(limit); err != nil {
		return nil, err
	}

	l.log.Info("tenant limits materialized from plan defaults",
		zap.Uint("tenant_id", tenantID),
		zap.String("plan", limit.PlanType))

	return limit, nil
}

func maxFor(limit *model.TenantLimit, metric Metric) int {
	switch metric {
	case MetricLeads:
		return limit.MaxLeads
	case MetricUsers:
		return limit.MaxUsers
	case MetricItems:
		return limit.MaxItems
	case MetricAPICalls:
		return limit.MaxAPICalls
	default:
		return model.Unlimited
	}
}
