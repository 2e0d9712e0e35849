package audit

import (
	"errors"
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/principal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditStore struct {
	entries    []*model.AuditLog
	appendErr  error
	lastFilter Filter
}

func (s *fakeAuditStore) Append(entry *model.AuditLog) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) List(filter Filter) ([]model.AuditLog, error) {
	s.lastFilter = filter
	out := make([]model.AuditLog, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out, nil
}

func adminPrincipal() *principal.Principal {
	return &principal.Principal{ID: 1, Kind: principal.KindUser, TenantID: 10, Role: model.RoleAdmin}
}

func memberPrincipal() *principal.Principal {
	return &principal.Principal{ID: 5, Kind: principal.KindUser, TenantID: 10, Role: model.RoleMember}
}

func TestRecordStampsPrincipal(t *testing.T) {
	store := &fakeAuditStore{}
	r := NewRecorder(store, nil, nil)

	r.Record(memberPrincipal(), "lead", 33, ActionStatusChange,
		WithField("status", "NEW", "CONTACTED"))

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, uint(10), entry.TenantID)
	assert.Equal(t, uint(5), entry.UserID)
	assert.Equal(t, "lead", entry.EntityType)
	assert.Equal(t, uint(33), entry.EntityID)
	assert.Equal(t, "STATUS_CHANGE", entry.Action)
	assert.Equal(t, "status", entry.FieldName)
	assert.Equal(t, "NEW", entry.OldValue)
	assert.Equal(t, "CONTACTED", entry.NewValue)
}

func TestRecordSwallowsStoreFailure(t *testing.T) {
	store := &fakeAuditStore{appendErr: errors.New("disk full")}
	failures := 0
	r := NewRecorder(store, nil, func() { failures++ })

	// Must not panic and must not surface the error to the caller.
	r.Record(adminPrincipal(), "lead", 1, ActionDelete)

	assert.Empty(t, store.entries)
	assert.Equal(t, 1, failures)
}

func TestListScopesMemberToOwnEntries(t *testing.T) {
	store := &fakeAuditStore{}
	r := NewRecorder(store, nil, nil)

	_, err := r.List(memberPrincipal(), "lead", nil, 50, 0)
	require.NoError(t, err)

	require.NotNil(t, store.lastFilter.UserID)
	assert.Equal(t, uint(5), *store.lastFilter.UserID)
	assert.Equal(t, uint(10), store.lastFilter.TenantID)
}

func TestListAdminSeesWholeTenant(t *testing.T) {
	store := &fakeAuditStore{}
	r := NewRecorder(store, nil, nil)

	_, err := r.List(adminPrincipal(), "", nil, 50, 0)
	require.NoError(t, err)

	assert.Nil(t, store.lastFilter.UserID)
	assert.Equal(t, uint(10), store.lastFilter.TenantID)
}

func TestListClampsLimit(t *testing.T) {
	store := &fakeAuditStore{}
	r := NewRecorder(store, nil, nil)

	_, err := r.List(adminPrincipal(), "", nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastFilter.Limit)

	_, err = r.List(adminPrincipal(), "", nil, 5000, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastFilter.Limit)
}
