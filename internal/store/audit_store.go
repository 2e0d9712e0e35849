package store

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/audit"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"gorm.io/gorm"
)

// AuditStore persists audit entries. It is handed the root database handle
// rather than any request-scoped transaction so that appends commit on
// their own boundary.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates an audit store over the given database.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Append inserts one immutable entry.
func (s *AuditStore) Append(entry *model.AuditLog) error {
	return s.db.Create(entry).Error
}

// List returns entries matching the filter, newest first.
func (s *AuditStore) List(filter audit.Filter) ([]model.AuditLog, error) {
	query := s.db.Model(&model.AuditLog{}).Where("tenant_id = ?", filter.TenantID)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	var entries []model.AuditLog
	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&entries).Error
	return entries, err
}
