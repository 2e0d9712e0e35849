// Package audit appends immutable change records for CRM mutations. The
// recorder is a side effect: a failed audit write degrades to a logged
// warning and never fails or rolls back the mutation it describes.
package audit

import (
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"go.uber.org/zap"
)

// Action identifies what happened to an entity.
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionAssign       Action = "ASSIGN"
	ActionStatusChange Action = "STATUS_CHANGE"
	ActionStageChange  Action = "STAGE_CHANGE"
	ActionConvert      Action = "CONVERT"
)

// Option adds optional detail to an entry.
type Option func(*model.AuditLog)

// WithField records a single field change. For multi-field updates the
// caller diffs and records once per changed field.
func WithField(name, oldValue, newValue string) Option {
	return func(e *model.AuditLog) {
		e.FieldName = name
		e.OldValue = oldValue
		e.NewValue = newValue
	}
}

// WithMetadata attaches a JSON metadata blob.
func WithMetadata(metadata string) Option {
	return func(e *model.AuditLog) {
		e.Metadata = metadata
	}
}

// Filter narrows audit log reads.
type Filter struct {
	TenantID   uint
	UserID     *uint
	EntityType string
	EntityID   *uint
	Limit      int
	Offset     int
}

// Store is the persistence surface for audit entries. Append runs on its
// own connection, outside the request's unit of work, so an audit failure
// cannot unwind the primary commit.
type Store interface {
	Append(entry *model.AuditLog) error
	List(filter Filter) ([]model.AuditLog, error)
}

// Recorder appends audit entries and serves scoped reads.
type Recorder struct {
	store Store
	log   *zap.Logger

	// onFailure is invoked when an append fails, after logging. Used to
	// bump the audit failure metric without coupling this package to it.
	onFailure func()
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store, log *zap.Logger, onFailure func()) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log, onFailure: onFailure}
}

// Record appends one entry stamped with the principal's tenant and id.
// Best-effort: persistence errors are logged and swallowed.
func (r *Recorder) Record(p *principal.Principal, entityType string, entityID uint, action Action, opts ...Option) {
	entry := &model.AuditLog{
		TenantID:   p.TenantID,
		UserID:     p.ID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     string(action),
	}

	for _, opt := range opts {
		opt(entry)
	}

	if err := r.store.Append(entry); err != nil {
		r.log.Warn("audit write failed",
			zap.Error(err),
			zap.Uint("tenant_id", entry.TenantID),
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", entityID),
			zap.String("action", string(action)))
		if r.onFailure != nil {
			r.onFailure()
		}
	}
}

// List returns audit entries visible to the principal: admins see all
// tenant entries, members only the entries they personally wrote.
func (r *Recorder) List(p *principal.Principal, entityType string, entityID *uint, limit, offset int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	filter := Filter{
		TenantID:   p.TenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Limit:      limit,
		Offset:     offset,
	}
	if !p.IsAdmin() {
		id := p.ID
		filter.UserID = &id
	}

	entries, err := r.store.List(filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return entries, nil
}
