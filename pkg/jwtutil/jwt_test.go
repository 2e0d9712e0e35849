package jwtutil

import (
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil(minutes int) *JWTUtil {
	return NewJWTUtil(&config.JWTConfig{
		SigningKey:    "test-signing-key",
		ExpireMinutes: minutes,
	})
}

func TestIssueValidateRoundTrip(t *testing.T) {
	j := newTestUtil(60)
	tenantID := uint(7)

	token, err := j.Issue(42, KindUser, SessionClaims{Email: "ana@example.com", TenantID: &tenantID})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Validate(token)
	require.NoError(t, err)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, KindUser, claims.Kind)
	assert.Equal(t, "ana@example.com", claims.Email)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
}

func TestValidateExpired(t *testing.T) {
	// Negative TTL places the expiry in the past.
	j := newTestUtil(-1)

	token, err := j.Issue(1, KindUser, SessionClaims{})
	require.NoError(t, err)

	_, err = j.Validate(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateMalformed(t *testing.T) {
	j := newTestUtil(60)

	_, err := j.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidateBadSignature(t *testing.T) {
	j := newTestUtil(60)
	other := NewJWTUtil(&config.JWTConfig{SigningKey: "another-key", ExpireMinutes: 60})

	token, err := other.Issue(1, KindUser, SessionClaims{})
	require.NoError(t, err)

	_, err = j.Validate(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestPartnerKindSurvivesRoundTrip(t *testing.T) {
	j := newTestUtil(60)
	partnerID := uint(3)

	token, err := j.Issue(9, KindPartner, SessionClaims{PartnerID: &partnerID})
	require.NoError(t, err)

	claims, err := j.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, KindPartner, claims.Kind)
	require.NotNil(t, claims.PartnerID)
	assert.Equal(t, uint(3), *claims.PartnerID)
}

func TestSubjectIDRejectsNonInteger(t *testing.T) {
	claims := &SessionClaims{}
	claims.Subject = "abc"

	_, err := claims.SubjectID()
	assert.Error(t, err)
}
