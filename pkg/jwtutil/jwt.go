package jwtutil

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

// Principal kinds carried inside a session token. A token minted for one
// kind is never accepted on the other kind's resolution path.
const (
	KindUser    = "user"
	KindPartner = "partner"
)

// Typed validation failures. Validation is purely structural and
// cryptographic; no database is consulted here.
var (
	ErrExpired      = errors.New("token expired")
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
)

// SessionClaims represents the JWT claims for an authenticated session.
// Subject (in RegisteredClaims) carries the principal id as a decimal string.
type SessionClaims struct {
	Kind      string `json:"kind"`
	Email     string `json:"email,omitempty"`
	TenantID  *uint  `json:"tenant_id,omitempty"`
	PartnerID *uint  `json:"partner_id,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID parses the subject claim as an unsigned integer id.
func (c *SessionClaims) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subject is not an integer: %w", err)
	}
	return uint(id), nil
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg}
}

// Issue creates a signed session token for the given subject and kind.
// Expiry is now + the configured TTL (minutes).
func (j *JWTUtil) Issue(subjectID uint, kind string, extra SessionClaims) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims := SessionClaims{
		Kind:      kind,
		Email:     extra.Email,
		TenantID:  extra.TenantID,
		PartnerID: extra.PartnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subjectID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpireMinutes) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// Validate validates and parses a session token. Failures are mapped to
// ErrExpired, ErrBadSignature or ErrMalformed.
func (j *JWTUtil) Validate(tokenString string) (*SessionClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
