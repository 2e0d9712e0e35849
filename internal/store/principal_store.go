// Package store provides the gorm-backed implementations of the narrow
// persistence interfaces consumed by the resolver, limiter and recorder.
package store

import (
	"errors"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"gorm.io/gorm"
)

// PrincipalStore loads tenant users and partner users for resolution.
type PrincipalStore struct {
	db *gorm.DB
}

// NewPrincipalStore creates a principal store over the given database.
func NewPrincipalStore(db *gorm.DB) *PrincipalStore {
	return &PrincipalStore{db: db}
}

// FindUser returns the tenant user with the given id, or (nil, nil) when
// it does not exist.
func (s *PrincipalStore) FindUser(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindPartnerUser returns the partner user with the given id, or (nil, nil).
func (s *PrincipalStore) FindPartnerUser(id uint) (*model.PartnerUser, error) {
	var user model.PartnerUser
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindPartnerOrg returns the partner organization with the given id, or
// (nil, nil).
func (s *PrincipalStore) FindPartnerOrg(id uint) (*model.PartnerOrg, error) {
	var org model.PartnerOrg
	if err := s.db.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
