// Package checks implements the check registry: creation under a per-owner
// quota, reads and partial updates, and deletion with owner-list upkeep.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/models"
	"github.com/upmonhq/upmon/internal/server/ownerlock"
	"github.com/upmonhq/upmon/internal/store"
)

// TokenSource resolves and verifies session tokens.
type TokenSource interface {
	Get(ctx context.Context, id string) (*models.Token, error)
	Verify(ctx context.Context, id, phone string) bool
}

// Fields carries the caller-supplied probe description for Create. The owner
// is never part of it; ownership always comes from the presented token.
type Fields struct {
	Protocol       string
	URL            string
	Method         string
	SuccessCodes   []int
	TimeoutSeconds int
}

// Patch carries the optional fields of a check update. Nil / empty means
// "leave unchanged"; at least one field must be supplied.
type Patch struct {
	Protocol       *string
	URL            *string
	Method         *string
	SuccessCodes   []int
	TimeoutSeconds *int
}

func (p Patch) empty() bool {
	return p.Protocol == nil && p.URL == nil && p.Method == nil &&
		len(p.SuccessCodes) == 0 && p.TimeoutSeconds == nil
}

// Service is the check registry.
type Service struct {
	store     store.Store
	tokens    TokenSource
	locks     *ownerlock.Table
	logger    logging.Logger
	maxChecks int

	newID func() (string, error)
}

func NewService(st store.Store, ts TokenSource, locks *ownerlock.Table, l logging.Logger, maxChecks int) *Service {
	return &Service{
		store:     st,
		tokens:    ts,
		locks:     locks,
		logger:    l,
		maxChecks: maxChecks,
		newID:     func() (string, error) { return common.MakeRandString(models.CheckIDLength) },
	}
}

// Create validates the probe fields, resolves the owner from the token, and
// persists the check followed by the owner's updated list. The two writes
// are individually atomic but not transactional: if the list update fails
// the check stays behind as an orphan the owner cannot enumerate. That state
// is reported, not rolled back.
func (s *Service) Create(ctx context.Context, fields Fields, tokenID string) (*models.Check, error) {
	check := &models.Check{
		Protocol:       strings.TrimSpace(fields.Protocol),
		URL:            strings.TrimSpace(fields.URL),
		Method:         strings.TrimSpace(fields.Method),
		SuccessCodes:   fields.SuccessCodes,
		TimeoutSeconds: fields.TimeoutSeconds,
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	// The owner is whoever the token belongs to, never a client field. Only
	// absent or malformed tokens read as forbidden; an infrastructure fault
	// stays an infrastructure fault.
	token, err := s.tokens.Get(ctx, tokenID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
			return nil, common.ErrForbidden
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if !s.tokens.Verify(ctx, token.ID, token.Phone) {
		return nil, common.ErrForbidden
	}
	phone := token.Phone

	unlock := s.locks.Lock(phone)
	defer unlock()

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, phone, &user); err != nil {
		// A token may outlive its account; a dangling owner reads the same
		// as a bad token. Anything else propagates.
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, fmt.Errorf("reading owner record: %w", err)
	}

	if len(user.Checks) >= s.maxChecks {
		return nil, common.ErrMaxChecksExceeded
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generating check id: %w", err)
	}
	check.ID = id
	check.Phone = phone

	if err := s.store.Create(ctx, store.CollectionChecks, id, check); err != nil {
		return nil, err
	}

	user.Checks = append(user.Checks, id)
	if err := s.store.Update(ctx, store.CollectionUsers, phone, &user); err != nil {
		s.logger.Error(ctx, "check created but owner list update failed; check is orphaned",
			"check", id, "owner", phone, "err", err)
		return nil, err
	}

	s.logger.Info(ctx, "check created", "check", id, "owner", phone, "count", len(user.Checks))
	return check, nil
}

// Read loads the check first and only then checks ownership, so a missing id
// reads as NotFound even to callers without a valid token. This mirrors the
// original system; see the user registry for the opposite ordering.
func (s *Service) Read(ctx context.Context, id, tokenID string) (*models.Check, error) {
	check, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Verify(ctx, tokenID, check.Phone) {
		return nil, common.ErrForbidden
	}
	return check, nil
}

// Update merges the supplied fields into an existing check.
func (s *Service) Update(ctx context.Context, id string, patch Patch, tokenID string) error {
	if patch.empty() {
		return common.ErrValidation
	}
	if patch.Protocol != nil && !models.ValidProtocol(*patch.Protocol) {
		return fmt.Errorf("%w: protocol", common.ErrValidation)
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return fmt.Errorf("%w: url", common.ErrValidation)
	}
	if patch.Method != nil && !models.ValidMethod(*patch.Method) {
		return fmt.Errorf("%w: method", common.ErrValidation)
	}
	if patch.TimeoutSeconds != nil && !models.ValidTimeout(*patch.TimeoutSeconds) {
		return fmt.Errorf("%w: timeoutSeconds", common.ErrValidation)
	}

	check, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.tokens.Verify(ctx, tokenID, check.Phone) {
		return common.ErrForbidden
	}

	if patch.Protocol != nil {
		check.Protocol = *patch.Protocol
	}
	if patch.URL != nil {
		check.URL = strings.TrimSpace(*patch.URL)
	}
	if patch.Method != nil {
		check.Method = *patch.Method
	}
	if len(patch.SuccessCodes) > 0 {
		check.SuccessCodes = patch.SuccessCodes
	}
	if patch.TimeoutSeconds != nil {
		check.TimeoutSeconds = *patch.TimeoutSeconds
	}

	return s.store.Update(ctx, store.CollectionChecks, check.ID, check)
}

// Delete removes the check and then drops its id from the owner's list. A
// check whose id is already missing from that list means the two collections
// have drifted; that is surfaced as ErrConsistency, not NotFound, so
// operators can tell corruption from an ordinary miss.
func (s *Service) Delete(ctx context.Context, id, tokenID string) error {
	check, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.tokens.Verify(ctx, tokenID, check.Phone) {
		return common.ErrForbidden
	}

	unlock := s.locks.Lock(check.Phone)
	defer unlock()

	if err := s.store.Delete(ctx, store.CollectionChecks, check.ID); err != nil {
		return err
	}

	var user models.User
	if err := s.store.Read(ctx, store.CollectionUsers, check.Phone, &user); err != nil {
		s.logger.Error(ctx, "check deleted but owner record unavailable", "check", id, "owner", check.Phone, "err", err)
		return common.ErrConsistency
	}
	if !user.RemoveCheck(check.ID) {
		s.logger.Error(ctx, "deleted check was missing from owner list", "check", id, "owner", check.Phone)
		return common.ErrConsistency
	}

	if err := s.store.Update(ctx, store.CollectionUsers, check.Phone, &user); err != nil {
		return err
	}

	s.logger.Info(ctx, "check deleted", "check", id, "owner", check.Phone)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Check, error) {
	id = strings.TrimSpace(id)
	if len(id) != models.CheckIDLength {
		return nil, common.ErrValidation
	}
	var check models.Check
	if err := s.store.Read(ctx, store.CollectionChecks, id, &check); err != nil {
		return nil, err
	}
	return &check, nil
}
