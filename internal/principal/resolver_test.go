package principal

import (
	"net/http"
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/config"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/jwtutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[uint]*model.User
}

func (s *fakeUserStore) FindUser(id uint) (*model.User, error) {
	return s.users[id], nil
}

type fakePartnerStore struct {
	users map[uint]*model.PartnerUser
	orgs  map[uint]*model.PartnerOrg
}

func (s *fakePartnerStore) FindPartnerUser(id uint) (*model.PartnerUser, error) {
	return s.users[id], nil
}

func (s *fakePartnerStore) FindPartnerOrg(id uint) (*model.PartnerOrg, error) {
	return s.orgs[id], nil
}

func newTestResolver() (*Resolver, *jwtutil.JWTUtil, *fakeUserStore, *fakePartnerStore) {
	codec := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpireMinutes: 60})
	users := &fakeUserStore{users: map[uint]*model.User{
		1: {ID: 1, TenantID: 10, Email: "admin@acme.com", Role: model.RoleAdmin, Active: true},
		2: {ID: 2, TenantID: 10, Email: "rep@acme.com", Role: model.RoleMember, Active: true},
		3: {ID: 3, TenantID: 10, Email: "gone@acme.com", Role: model.RoleMember, Active: false},
	}}
	partners := &fakePartnerStore{
		users: map[uint]*model.PartnerUser{
			5: {ID: 5, PartnerID: 20, Email: "p@partner.com", Active: true, IsOwner: true},
			6: {ID: 6, PartnerID: 21, Email: "q@partner.com", Active: true},
			7: {ID: 7, PartnerID: 20, Email: "r@partner.com", Active: false},
		},
		orgs: map[uint]*model.PartnerOrg{
			20: {ID: 20, Status: model.PartnerStatusApproved},
			21: {ID: 21, Status: model.PartnerStatusPending},
		},
	}
	return NewResolver(codec, users, partners), codec, users, partners
}

func bearer(t *testing.T, codec *jwtutil.JWTUtil, id uint, kind string) string {
	t.Helper()
	token, err := codec.Issue(id, kind, jwtutil.SessionClaims{})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestResolveUserSuccess(t *testing.T) {
	r, codec, _, _ := newTestResolver()

	p, err := r.ResolveUser(bearer(t, codec, 1, jwtutil.KindUser))
	require.NoError(t, err)
	assert.Equal(t, uint(1), p.ID)
	assert.Equal(t, uint(10), p.TenantID)
	assert.True(t, p.IsAdmin())

	p, err = r.ResolveUser(bearer(t, codec, 2, jwtutil.KindUser))
	require.NoError(t, err)
	assert.False(t, p.IsAdmin())
}

func TestResolveUserFailureLadder(t *testing.T) {
	r, codec, _, _ := newTestResolver()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no scheme", "sometoken", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"unknown subject", bearer(t, codec, 999, jwtutil.KindUser), http.StatusUnauthorized},
		{"cross-kind token", bearer(t, codec, 5, jwtutil.KindPartner), http.StatusUnauthorized},
		{"inactive user", bearer(t, codec, 3, jwtutil.KindUser), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveUser(tt.header)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperr.Status(err))
		})
	}
}

func TestResolveUserRejectsExpiredToken(t *testing.T) {
	r, _, _, _ := newTestResolver()
	expired := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpireMinutes: -1})

	token, err := expired.Issue(1, jwtutil.KindUser, jwtutil.SessionClaims{})
	require.NoError(t, err)

	_, err = r.ResolveUser("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(err))
}

func TestResolveUserSchemeIsCaseInsensitive(t *testing.T) {
	r, codec, _, _ := newTestResolver()

	token, err := codec.Issue(2, jwtutil.KindUser, jwtutil.SessionClaims{})
	require.NoError(t, err)

	p, err := r.ResolveUser("bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(2), p.ID)
}

func TestResolvePartnerSuccess(t *testing.T) {
	r, codec, _, _ := newTestResolver()

	p, err := r.ResolvePartner(bearer(t, codec, 5, jwtutil.KindPartner))
	require.NoError(t, err)
	assert.Equal(t, KindPartner, p.Kind)
	assert.Equal(t, uint(20), p.PartnerID)
	assert.True(t, p.IsOwner)
	assert.False(t, p.IsAdmin())
}

func TestResolvePartnerFailures(t *testing.T) {
	r, codec, _, _ := newTestResolver()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"user token on partner path", bearer(t, codec, 1, jwtutil.KindUser), http.StatusUnauthorized},
		{"unapproved organization", bearer(t, codec, 6, jwtutil.KindPartner), http.StatusForbidden},
		{"inactive partner user", bearer(t, codec, 7, jwtutil.KindPartner), http.StatusForbidden},
		{"unknown partner user", bearer(t, codec, 999, jwtutil.KindPartner), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolvePartner(tt.header)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperr.Status(err))
		})
	}
}
