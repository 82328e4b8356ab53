// Package tokens implements the token authority: it issues, extends, and
// revokes session tokens and answers the Verify predicate every owner-scoped
// operation gates on.
package tokens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/hashing"
	"github.com/upmonhq/upmon/internal/server/models"
	"github.com/upmonhq/upmon/internal/store"
)

// Service is the token authority.
type Service struct {
	store    store.Store
	hasher   hashing.Hasher
	logger   logging.Logger
	validity time.Duration

	// seams for tests
	now   func() time.Time
	newID func() (string, error)
}

// NewService constructs a token authority with the given token lifetime.
func NewService(st store.Store, h hashing.Hasher, l logging.Logger, validity time.Duration) *Service {
	return &Service{
		store:    st,
		hasher:   h,
		logger:   l,
		validity: validity,
		now:      time.Now,
		newID:    func() (string, error) { return common.MakeRandString(models.TokenIDLength) },
	}
}

// Issue validates the credentials against the user record and mints a fresh
// token expiring after the configured lifetime.
func (s *Service) Issue(ctx context.Context, phone, password string) (*models.Token, error) {
	phone = strings.TrimSpace(phone)
	password = strings.TrimSpace(password)
	if !models.ValidPhone(phone) || password == "" {
		return nil, common.ErrValidation
	}

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, phone, &user); err != nil {
		return nil, err
	}

	if s.hasher.Hash(password) != user.HashedPassword {
		return nil, common.ErrPasswordMismatch
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generating token id: %w", err)
	}
	token := &models.Token{
		ID:      id,
		Phone:   phone,
		Expires: s.now().Add(s.validity),
	}
	if err := s.store.Create(ctx, store.CollectionTokens, id, token); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "token issued", "owner", phone)
	return token, nil
}

// Get returns the token record for id.
func (s *Service) Get(ctx context.Context, id string) (*models.Token, error) {
	id = strings.TrimSpace(id)
	if len(id) != models.TokenIDLength {
		return nil, common.ErrValidation
	}
	var token models.Token
	if err := s.store.Read(ctx, store.CollectionTokens, id, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Extend pushes a still-valid token's expiry to now + lifetime. A token that
// has already lapsed cannot be renewed.
func (s *Service) Extend(ctx context.Context, id string) error {
	token, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !token.ValidAt(s.now()) {
		return common.ErrTokenExpired
	}

	token.Expires = s.now().Add(s.validity)
	return s.store.Update(ctx, store.CollectionTokens, id, token)
}

// Revoke deletes the token.
func (s *Service) Revoke(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if len(id) != models.TokenIDLength {
		return common.ErrValidation
	}
	return s.store.Delete(ctx, store.CollectionTokens, id)
}

// Verify reports whether id names a live token owned by phone. It never
// fails loudly: absent, mismatched, and expired tokens all read as false.
func (s *Service) Verify(ctx context.Context, id, phone string) bool {
	if id == "" {
		return false
	}
	var token models.Token
	if err := s.store.Read(ctx, store.CollectionTokens, id, &token); err != nil {
		s.logger.Debug(ctx, "token verification failed", "reason", "lookup", "err", err)
		return false
	}
	if token.Phone != phone {
		s.logger.Debug(ctx, "token verification failed", "reason", "owner mismatch")
		return false
	}
	if !token.ValidAt(s.now()) {
		s.logger.Debug(ctx, "token verification failed", "reason", "expired")
		return false
	}
	return true
}
