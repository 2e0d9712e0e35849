package store

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageStore maintains the per-tenant monthly API call counters.
type UsageStore struct {
	db *gorm.DB
}

// NewUsageStore creates a usage store over the given database.
func NewUsageStore(db *gorm.DB) *UsageStore {
	return &UsageStore{db: db}
}

// IncrementAPICalls bumps the tenant's counter for the current month,
// creating the bucket when absent.
func (s *UsageStore) IncrementAPICalls(tenantID uint) error {
	usage := model.APIUsage{
		TenantID: tenantID,
		Month:    CurrentMonth(),
		Calls:    1,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"calls": gorm.Expr("api_usages.calls + 1"),
		}),
	}).Create(&usage).Error
}
