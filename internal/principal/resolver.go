package principal

import (
	"strings"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/apperr"
	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/Fedevops/tyr-crm-ai-sub001/pkg/jwtutil"
)

// UserStore loads tenant users for resolution. Implementations return
// (nil, nil) when the id is unknown.
type UserStore interface {
	FindUser(id uint) (*model.User, error)
}

// PartnerStore loads partner users and their organization.
type PartnerStore interface {
	FindPartnerUser(id uint) (*model.PartnerUser, error)
	FindPartnerOrg(id uint) (*model.PartnerOrg, error)
}

// Resolver turns a raw Authorization header value into a Principal.
type Resolver struct {
	codec    *jwtutil.JWTUtil
	users    UserStore
	partners PartnerStore
}

// NewResolver creates a resolver over the given codec and stores.
func NewResolver(codec *jwtutil.JWTUtil, users UserStore, partners PartnerStore) *Resolver {
	return &Resolver{codec: codec, users: users, partners: partners}
}

// ResolveUser resolves a tenant-user credential. Partner tokens presented
// here fail with Unauthenticated: cross-kind tokens are never valid on the
// wrong path.
func (r *Resolver) ResolveUser(header string) (*Principal, error) {
	claims, err := r.parse(header, jwtutil.KindUser)
	if err != nil {
		return nil, err
	}

	id, err := claims.SubjectID()
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token subject")
	}

	user, err := r.users.FindUser(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("unknown user")
	}
	if !user.Active {
		return nil, apperr.Forbidden("account is inactive")
	}

	return &Principal{
		ID:       user.ID,
		Kind:     KindUser,
		Email:    user.Email,
		TenantID: user.TenantID,
		Role:     user.Role,
	}, nil
}

// ResolvePartner resolves a partner-user credential. The partner's
// organization must be approved.
func (r *Resolver) ResolvePartner(header string) (*Principal, error) {
	claims, err := r.parse(header, jwtutil.KindPartner)
	if err != nil {
		return nil, err
	}

	id, err := claims.SubjectID()
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token subject")
	}

	user, err := r.partners.FindPartnerUser(id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("unknown partner user")
	}
	if !user.Active {
		return nil, apperr.Forbidden("account is inactive")
	}

	org, err := r.partners.FindPartnerOrg(user.PartnerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if org == nil || org.Status != model.PartnerStatusApproved {
		return nil, apperr.Forbidden("partner organization is not approved")
	}

	return &Principal{
		ID:        user.ID,
		Kind:      KindPartner,
		Email:     user.Email,
		PartnerID: user.PartnerID,
		IsOwner:   user.IsOwner,
	}, nil
}

// parse extracts and validates the bearer token, enforcing the expected
// principal kind.
func (r *Resolver) parse(header, wantKind string) (*jwtutil.SessionClaims, error) {
	if header == "" {
		return nil, apperr.Unauthenticated("missing authorization token")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, apperr.Unauthenticated("invalid authorization format, expected Bearer token")
	}

	claims, err := r.codec.Validate(parts[1])
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}

	kind := claims.Kind
	if kind == "" {
		// Tokens issued before the partner portal existed carry no kind.
		kind = jwtutil.KindUser
	}
	if kind != wantKind {
		return nil, apperr.Unauthenticated("invalid token")
	}

	return claims, nil
}
