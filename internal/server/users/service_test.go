package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmonhq/upmon/internal/common"
	"github.com/upmonhq/upmon/internal/logging"
	"github.com/upmonhq/upmon/internal/server/hashing"
	"github.com/upmonhq/upmon/internal/server/models"
	"github.com/upmonhq/upmon/internal/server/ownerlock"
	"github.com/upmonhq/upmon/internal/store"
)

const (
	testPhone    = "+15555550100"
	testPassword = "s3cret"
)

// allowVerifier authorizes every (token, phone) pair; denyVerifier none.
type allowVerifier struct{}

func (allowVerifier) Verify(context.Context, string, string) bool { return true }

type denyVerifier struct{}

func (denyVerifier) Verify(context.Context, string, string) bool { return false }

// failingDeletes fails check deletions for selected ids, for cascade tests.
type failingDeletes struct {
	store.Store
	failIDs map[string]bool
}

func (f *failingDeletes) Delete(ctx context.Context, collection, id string) error {
	if collection == store.CollectionChecks && f.failIDs[id] {
		return fmt.Errorf("%w: induced failure", common.ErrStore)
	}
	return f.Store.Delete(ctx, collection, id)
}

func newTestService(t *testing.T, tv TokenVerifier) (*Service, *store.Memory, hashing.Hasher) {
	t.Helper()
	st := store.NewMemory()
	h := hashing.NewHMAC("test-secret")
	return NewService(st, h, tv, ownerlock.New(), logging.Nop()), st, h
}

func register(t *testing.T, s *Service) {
	t.Helper()
	require.NoError(t, s.Register(context.Background(), "Ada", "Lovelace", testPhone, testPassword, true))
}

func TestRegister_Success(t *testing.T) {
	s, st, h := newTestService(t, allowVerifier{})
	register(t, s)

	var user models.User
	require.NoError(t, st.Read(context.Background(), store.CollectionUsers, testPhone, &user))
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.True(t, user.TOSAgreement)
	assert.Empty(t, user.Checks)
	assert.Equal(t, h.Hash(testPassword), user.HashedPassword, "password must be stored hashed")
}

func TestRegister_Duplicate(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	register(t, s)

	err := s.Register(context.Background(), "Ada", "Lovelace", testPhone, testPassword, true)
	assert.ErrorIs(t, err, common.ErrDuplicateUser)
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	ctx := context.Background()

	tests := []struct {
		name                           string
		firstName, lastName, phone, pw string
		tos                            bool
	}{
		{"missing first name", "", "Lovelace", testPhone, testPassword, true},
		{"missing last name", "Ada", "", testPhone, testPassword, true},
		{"short phone", "Ada", "Lovelace", "+1555", testPassword, true},
		{"missing password", "Ada", "Lovelace", testPhone, "", true},
		{"tos not agreed", "Ada", "Lovelace", testPhone, testPassword, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(ctx, tt.firstName, tt.lastName, tt.phone, tt.pw, tt.tos)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRead_RedactsHashedPassword(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	register(t, s)

	user, err := s.Read(context.Background(), testPhone, "any-token")
	require.NoError(t, err)
	assert.Empty(t, user.HashedPassword)
	assert.Equal(t, "Ada", user.FirstName)
}

// The user registry checks authorization before existence: with a bad token
// the caller cannot learn whether an account exists.
func TestRead_AuthBeforeExistence(t *testing.T) {
	s, _, _ := newTestService(t, denyVerifier{})
	register(t, s)
	ctx := context.Background()

	_, err := s.Read(ctx, testPhone, "bad-token")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = s.Read(ctx, "+15555550999", "bad-token")
	assert.ErrorIs(t, err, common.ErrForbidden, "missing user must also read as forbidden")
}

func TestRead_MissingUserAfterAuth(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	_, err := s.Read(context.Background(), "+15555550999", "any-token")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdate_MergesSuppliedFields(t *testing.T) {
	s, st, h := newTestService(t, allowVerifier{})
	register(t, s)
	ctx := context.Background()

	first := "Augusta"
	pw := "n3w-secret"
	require.NoError(t, s.Update(ctx, testPhone, Patch{FirstName: &first, Password: &pw}, "any-token"))

	var user models.User
	require.NoError(t, st.Read(ctx, store.CollectionUsers, testPhone, &user))
	assert.Equal(t, "Augusta", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName, "unsupplied field stays")
	assert.Equal(t, h.Hash(pw), user.HashedPassword, "new password re-hashed")
}

func TestUpdate_EmptyPatch(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	register(t, s)
	err := s.Update(context.Background(), testPhone, Patch{}, "any-token")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdate_Forbidden(t *testing.T) {
	s, _, _ := newTestService(t, denyVerifier{})
	register(t, s)
	first := "Augusta"
	err := s.Update(context.Background(), testPhone, Patch{FirstName: &first}, "bad-token")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestUpdate_UserVanished(t *testing.T) {
	s, _, _ := newTestService(t, allowVerifier{})
	first := "Augusta"
	err := s.Update(context.Background(), "+15555550999", Patch{FirstName: &first}, "any-token")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// gatedUserReads parks the caller between its user read and whatever comes
// next, so a concurrent writer can be interleaved deterministically.
type gatedUserReads struct {
	store.Store
	gate    bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedUserReads) Read(ctx context.Context, collection, id string, record any) error {
	err := g.Store.Read(ctx, collection, id, record)
	if g.gate && collection == store.CollectionUsers {
		g.gate = false
		close(g.entered)
		<-g.release
	}
	return err
}

// A profile update writes the whole record back, checks list included, so it
// must hold the owner lock across its read and write. Otherwise a check
// create that lands in between has its list append silently overwritten,
// leaving an unenumerable orphan.
func TestUpdate_HoldsOwnerLockAcrossReadWrite(t *testing.T) {
	gated := &gatedUserReads{
		Store:   store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	locks := ownerlock.New()
	s := NewService(gated, hashing.NewHMAC("test-secret"), allowVerifier{}, locks, logging.Nop())
	register(t, s)
	ctx := context.Background()

	gated.gate = true
	updateDone := make(chan error, 1)
	go func() {
		first := "Augusta"
		updateDone <- s.Update(ctx, testPhone, Patch{FirstName: &first}, "any-token")
	}()
	<-gated.entered

	// Append a check id under the owner lock, the way the check registry
	// does. It must not be able to run inside the update's read-write gap.
	appendDone := make(chan struct{})
	go func() {
		defer close(appendDone)
		unlock := locks.Lock(testPhone)
		defer unlock()
		var user models.User
		assert.NoError(t, gated.Store.Read(ctx, store.CollectionUsers, testPhone, &user))
		user.Checks = append(user.Checks, "check1aaaaaaaaaaaaaa")
		assert.NoError(t, gated.Store.Update(ctx, store.CollectionUsers, testPhone, &user))
	}()

	time.Sleep(50 * time.Millisecond)
	close(gated.release)
	require.NoError(t, <-updateDone)
	<-appendDone

	var user models.User
	require.NoError(t, gated.Store.Read(ctx, store.CollectionUsers, testPhone, &user))
	assert.Equal(t, []string{"check1aaaaaaaaaaaaaa"}, user.Checks, "concurrent append must survive the update")
	assert.Equal(t, "Augusta", user.FirstName)
}

func seedChecks(t *testing.T, st store.Store, phone string, ids ...string) {
	t.Helper()
	ctx := context.Background()
	var user models.User
	require.NoError(t, st.Read(ctx, store.CollectionUsers, phone, &user))
	for _, id := range ids {
		check := &models.Check{ID: id, Phone: phone, Protocol: "http", URL: "example.com",
			Method: "get", SuccessCodes: []int{200}, TimeoutSeconds: 3}
		require.NoError(t, st.Create(ctx, store.CollectionChecks, id, check))
		user.Checks = append(user.Checks, id)
	}
	require.NoError(t, st.Update(ctx, store.CollectionUsers, phone, &user))
}

func TestDelete_CascadesOverChecks(t *testing.T) {
	s, st, _ := newTestService(t, allowVerifier{})
	register(t, s)
	seedChecks(t, st, testPhone, "check1aaaaaaaaaaaaaa", "check2aaaaaaaaaaaaaa")
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, testPhone, "any-token"))

	var out models.User
	assert.ErrorIs(t, st.Read(ctx, store.CollectionUsers, testPhone, &out), common.ErrNotFound)
	var check models.Check
	assert.ErrorIs(t, st.Read(ctx, store.CollectionChecks, "check1aaaaaaaaaaaaaa", &check), common.ErrNotFound)
	assert.ErrorIs(t, st.Read(ctx, store.CollectionChecks, "check2aaaaaaaaaaaaaa", &check), common.ErrNotFound)
}

// One induced failure mid-cascade: the call reports exactly one orphan, the
// user record is gone, and the orphaned check is still readable.
func TestDelete_PartialFailureLeavesOrphan(t *testing.T) {
	mem := store.NewMemory()
	flaky := &failingDeletes{Store: mem, failIDs: map[string]bool{"check2aaaaaaaaaaaaaa": true}}
	h := hashing.NewHMAC("test-secret")
	s := NewService(flaky, h, allowVerifier{}, ownerlock.New(), logging.Nop())
	register(t, s)
	seedChecks(t, mem, testPhone, "check1aaaaaaaaaaaaaa", "check2aaaaaaaaaaaaaa", "check3aaaaaaaaaaaaaa")
	ctx := context.Background()

	err := s.Delete(ctx, testPhone, "any-token")

	var pf *common.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, []string{"check2aaaaaaaaaaaaaa"}, pf.FailedIDs)
	assert.ErrorIs(t, err, common.ErrStore)

	var user models.User
	assert.ErrorIs(t, mem.Read(ctx, store.CollectionUsers, testPhone, &user), common.ErrNotFound,
		"user record must be gone despite the failed cascade step")

	var check models.Check
	assert.NoError(t, mem.Read(ctx, store.CollectionChecks, "check2aaaaaaaaaaaaaa", &check), "orphan remains")
	assert.ErrorIs(t, mem.Read(ctx, store.CollectionChecks, "check1aaaaaaaaaaaaaa", &check), common.ErrNotFound)
	assert.ErrorIs(t, mem.Read(ctx, store.CollectionChecks, "check3aaaaaaaaaaaaaa", &check), common.ErrNotFound)
}

func TestDelete_Forbidden(t *testing.T) {
	s, _, _ := newTestService(t, denyVerifier{})
	register(t, s)
	assert.ErrorIs(t, s.Delete(context.Background(), testPhone, "bad-token"), common.ErrForbidden)
}
