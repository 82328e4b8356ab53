// Package users implements the user registry: account registration, reads
// with password redaction, profile updates, and cascading deletion of the
// account's checks.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/hashing"
	"github.com/upmonhq/upmon/internal/server/models"
	"github.com/upmonhq/upmon/internal/server/ownerlock"
	"github.com/upmonhq/upmon/internal/store"
)

// TokenVerifier answers the authorization predicate for owner-scoped calls.
type TokenVerifier interface {
	Verify(ctx context.Context, id, phone string) bool
}

// Patch carries the optional fields of a profile update. Nil means "leave
// unchanged"; at least one field must be set.
type Patch struct {
	FirstName *string
	LastName  *string
	Password  *string
}

func (p Patch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Password == nil
}

// Service is the user registry.
type Service struct {
	store  store.Store
	hasher hashing.Hasher
	tokens TokenVerifier
	locks  *ownerlock.Table
	logger logging.Logger

	now func() time.Time
}

func NewService(st store.Store, h hashing.Hasher, tv TokenVerifier, locks *ownerlock.Table, l logging.Logger) *Service {
	return &Service{
		store:  st,
		hasher: h,
		tokens: tv,
		locks:  locks,
		logger: l,
		now:    time.Now,
	}
}

// Register creates a new account. The terms-of-service agreement must be
// explicit; anything else is a validation failure.
func (s *Service) Register(ctx context.Context, firstName, lastName, phone, password string, tosAgreement bool) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phone = strings.TrimSpace(phone)
	password = strings.TrimSpace(password)

	if firstName == "" || lastName == "" || !models.ValidPhone(phone) || password == "" || !tosAgreement {
		return common.ErrValidation
	}

	user := &models.User{
		Phone:          phone,
		FirstName:      firstName,
		LastName:       lastName,
		HashedPassword: s.hasher.Hash(password),
		TOSAgreement:   true,
		Checks:         []string{},
		CreatedAt:      s.now().UTC(),
	}

	if err := s.store.Create(ctx, store.CollectionUsers, phone, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return common.ErrDuplicateUser
		}
		return err
	}

	s.logger.Info(ctx, "user registered", "phone", phone)
	return nil
}

// Read returns the redacted user record. Authorization is checked before
// existence, so an invalid token cannot probe which accounts exist.
func (s *Service) Read(ctx context.Context, phone, tokenID string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if !models.ValidPhone(phone) {
		return nil, common.ErrValidation
	}
	if !s.tokens.Verify(ctx, tokenID, phone) {
		return nil, common.ErrForbidden
	}

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, phone, &user); err != nil {
		return nil, err
	}
	return user.Redacted(), nil
}

// Update applies the supplied profile fields. A new password is re-hashed;
// plaintext never reaches the store. The write carries the whole record,
// checks list included, so the read-modify-write runs under the owner lock
// to keep a concurrent check create from being overwritten.
func (s *Service) Update(ctx context.Context, phone string, patch Patch, tokenID string) error {
	phone = strings.TrimSpace(phone)
	if !models.ValidPhone(phone) || patch.empty() {
		return common.ErrValidation
	}
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		return common.ErrValidation
	}
	if patch.LastName != nil && strings.TrimSpace(*patch.LastName) == "" {
		return common.ErrValidation
	}
	if patch.Password != nil && strings.TrimSpace(*patch.Password) == "" {
		return common.ErrValidation
	}
	if !s.tokens.Verify(ctx, tokenID, phone) {
		return common.ErrForbidden
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, phone, &user); err != nil {
		return err
	}

	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Password != nil {
		user.HashedPassword = s.hasher.Hash(strings.TrimSpace(*patch.Password))
	}

	return s.store.Update(ctx, store.CollectionUsers, phone, &user)
}

// Delete removes the account and cascades over its checks. The cascade is
// best effort: each check deletion is attempted, failures are collected, and
// the user record is removed regardless of the cascade outcome. When some
// checks could not be deleted the call returns a *common.PartialFailure
// listing the orphaned ids; the account is gone either way.
func (s *Service) Delete(ctx context.Context, phone, tokenID string) error {
	phone = strings.TrimSpace(phone)
	if !models.ValidPhone(phone) {
		return common.ErrValidation
	}
	if !s.tokens.Verify(ctx, tokenID, phone) {
		return common.ErrForbidden
	}

	unlock := s.locks.Lock(phone)
	defer unlock()

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, phone, &user); err != nil {
		return err
	}

	var failed []string
	var causes error
	for _, checkID := range user.Checks {
		if err := s.store.Delete(ctx, store.CollectionChecks, checkID); err != nil {
			failed = append(failed, checkID)
			causes = multierr.Append(causes, fmt.Errorf("check %s: %w", checkID, err))
		}
	}

	if err := s.store.Delete(ctx, store.CollectionUsers, phone); err != nil {
		return err
	}

	if len(failed) > 0 {
		s.logger.Warn(ctx, "user deleted with orphaned checks", "phone", phone, "orphans", len(failed))
		return &common.PartialFailure{FailedIDs: failed, Err: causes}
	}

	s.logger.Info(ctx, "user deleted", "phone", phone, "checks_removed", len(user.Checks))
	return nil
}
