package store

import (
	"errors"
	"time"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/limits"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"gorm.io/gorm"
)

// LimitStore backs the usage limiter with tenant limit rows and usage
// counts.
type LimitStore struct {
	db *gorm.DB
}

// NewLimitStore creates a limit store over the given database.
func NewLimitStore(db *gorm.DB) *LimitStore {
	return &LimitStore{db: db}
}

// FindLimit returns the tenant's limit row, or (nil, nil) when it has not
// been materialized yet.
func (s *LimitStore) FindLimit(tenantID uint) (*model.TenantLimit, error) {
	var limit model.TenantLimit
	if err := s.db.Where("tenant_id = ?", tenantID).First(&limit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &limit, nil
}

// CreateLimit persists a freshly materialized limit row.
func (s *LimitStore) CreateLimit(limit *model.TenantLimit) error {
	return s.db.Create(limit).Error
}

// PlanType returns the tenant's plan tier, defaulting to STARTER when the
// tenant row is missing.
func (s *LimitStore) PlanType(tenantID uint) (string, error) {
	var tenant model.Tenant
	if err := s.db.Select("plan").First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.PlanStarter, nil
		}
		return "", err
	}
	if tenant.Plan == "" {
		return model.PlanStarter, nil
	}
	return tenant.Plan, nil
}

// Count returns current usage for a metric. Users counts active rows only;
// api_calls reads the current calendar month's bucket.
func (s *LimitStore) Count(tenantID uint, metric limits.Metric) (int64, error) {
	var count int64

	switch metric {
	case limits.MetricLeads:
		err := s.db.Model(&model.Lead{}).Where("tenant_id = ?", tenantID).Count(&count).Error
		return count, err
	case limits.MetricUsers:
		err := s.db.Model(&model.User{}).Where("tenant_id = ? AND active = ?", tenantID, true).Count(&count).Error
		return count, err
	case limits.MetricItems:
		err := s.db.Model(&model.Item{}).Where("tenant_id = ?", tenantID).Count(&count).Error
		return count, err
	case limits.MetricAPICalls:
		var usage model.APIUsage
		err := s.db.Where("tenant_id = ? AND month = ?", tenantID, CurrentMonth()).First(&usage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return usage.Calls, err
	default:
		return 0, nil
	}
}

// CurrentMonth returns the current calendar month bucket key ("2026-08").
func CurrentMonth() string {
	return time.Now().UTC().Format("2006-01")
}
