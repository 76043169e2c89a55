package share_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/cache"
	"github.com/3Eeeecho/go-divelog/internal/pkg/clock"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/3Eeeecho/go-divelog/internal/pkg/metrics"
	"github.com/3Eeeecho/go-divelog/internal/pkg/notify"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services"
	"github.com/3Eeeecho/go-divelog/internal/services/share"
	"github.com/3Eeeecho/go-divelog/internal/setup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func init() {
	logger.SetLogger(zap.NewNop())
}

// memCache is an in-process cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Get(_ context.Context, key string, target any) error {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, target)
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type recordingNotifier struct {
	events []notify.ShareCreated
}

func (n *recordingNotifier) ShareCreated(_ context.Context, evt notify.ShareCreated) error {
	n.events = append(n.events, evt)
	return nil
}

// scriptedTokens hands out the given tokens in order.
type scriptedTokens struct {
	tokens []string
}

func (s *scriptedTokens) Generate() (string, error) {
	tok := s.tokens[0]
	if len(s.tokens) > 1 {
		s.tokens = s.tokens[1:]
	}
	return tok, nil
}

type env struct {
	db       *gorm.DB
	clock    *clock.Fake
	mem      *memCache
	notifier *recordingNotifier
	reg      *prometheus.Registry
	users    repositories.UserRepository
	dives    repositories.DiveRepository
	shares   repositories.ShareRepository
	svc      share.ShareService

	alice, bob, carol *models.User
	dive              *models.Dive
}

func newEnv(t *testing.T, tokens share.TokenGenerator) *env {
	t.Helper()
	db, err := setup.InitDB(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })

	e := &env{
		db:       db,
		clock:    clock.NewFake(start),
		mem:      &memCache{data: map[string][]byte{}},
		notifier: &recordingNotifier{},
		reg:      prometheus.NewRegistry(),
		users:    repositories.NewUserRepository(db),
		dives:    repositories.NewDiveRepository(db),
		shares:   repositories.NewShareRepository(db),
	}
	cfg := &config.ShareConfig{PublicExpirationDays: 7, UserExpirationDays: 30, MaxExpirationDays: 365, PurgeRetentionDays: 30}
	e.svc = share.NewShareService(e.shares, e.dives, e.users, services.NewTransactionManager(db), cfg, share.ShareServiceDeps{
		Tokens:   tokens,
		Clock:    e.clock,
		Cache:    cache.NewShareCache(e.mem, 10*time.Minute, e.clock),
		Notifier: e.notifier,
		Metrics:  metrics.New(e.reg),
	})

	e.alice = e.user(t, "alice")
	e.bob = e.user(t, "bob")
	e.carol = e.user(t, "carol")
	e.dive = &models.Dive{
		UserID:     e.alice.ID,
		DiveNumber: 1,
		StartTime:  start,
		EndTime:    start.Add(50 * time.Minute),
		MaxDepth:   18.5,
		Location:   "Test Reef",
	}
	require.NoError(t, e.dives.Create(context.Background(), e.dive))
	return e
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", FirstName: strings.ToUpper(name[:1]) + name[1:], Status: models.UserStatusActive}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return u
}

func (e *env) countShares(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Share{}).Count(&n).Error)
	return n
}

func TestCreatePublicShare_ResolveThenExpire(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	sh, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.ExpireInDays(7))
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, sh.Visibility)
	assert.Nil(t, sh.SharedWithUserID)
	require.NotNil(t, sh.ExpirationTime)
	assert.True(t, sh.ExpirationTime.Equal(start.AddDate(0, 0, 7)))
	assert.Len(t, sh.Token, 43)

	view, err := e.svc.ResolveShare(ctx, sh.Token)
	require.NoError(t, err)
	assert.Equal(t, "Test Reef", view.Location)
	assert.Equal(t, 18.5, view.MaxDepth)
	assert.True(t, view.StartTime.Equal(e.dive.StartTime))
	assert.Equal(t, e.alice.ID, view.SharedBy.ID)
	assert.Equal(t, "alice", view.SharedBy.Username)
	assert.Equal(t, sh.ID, view.ShareID)

	e.clock.Advance(8 * 24 * time.Hour)
	view, err = e.svc.ResolveShare(ctx, sh.Token)
	assert.ErrorIs(t, err, xerr.ErrShareExpired)
	assert.NotErrorIs(t, err, xerr.ErrShareNotFound)
	assert.Nil(t, view)

	assert.Equal(t, 1.0, e.counter(t, "divelog_share_resolutions_total", "outcome", metrics.OutcomeOK))
	assert.Equal(t, 1.0, e.counter(t, "divelog_share_resolutions_total", "outcome", metrics.OutcomeExpired))
	assert.Equal(t, 1.0, e.counter(t, "divelog_shares_created_total", "visibility", "public"))
}

func (e *env) counter(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := e.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCreatePublicShare_ExpiryModes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	def, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	require.NotNil(t, def.ExpirationTime)
	assert.True(t, def.ExpirationTime.Equal(start.AddDate(0, 0, 7)))

	never, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.NeverExpire())
	require.NoError(t, err)
	assert.Nil(t, never.ExpirationTime)

	e.clock.Advance(10 * 365 * 24 * time.Hour)
	_, err = e.svc.ResolveShare(ctx, never.Token)
	assert.NoError(t, err)

	for _, days := range []int{0, -1, 366} {
		_, err = e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.ExpireInDays(days))
		assert.ErrorIs(t, err, xerr.ErrValidationFailed, "days=%d", days)
	}
	assert.Equal(t, int64(2), e.countShares(t))
}

func TestCreatePublicShare_Authorization(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.bob.ID, share.DefaultExpiry())
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "only the owner may share their own dive")

	_, err = e.svc.CreatePublicShare(ctx, 9999, e.alice.ID, share.DefaultExpiry())
	assert.ErrorIs(t, err, xerr.ErrDiveNotFound)

	assert.Zero(t, e.countShares(t))
}

func TestResolveShare_UnknownToken(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.svc.ResolveShare(context.Background(), "never-issued")
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
	assert.NotErrorIs(t, err, xerr.ErrShareExpired)
}

func TestResolveShare_ServesFromCache(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	sh, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.ExpireInDays(1))
	require.NoError(t, err)
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	require.NoError(t, err)

	ok, _ := e.mem.Exists(ctx, cache.GenerateShareTokenKey(sh.Token))
	assert.True(t, ok, "first resolution populates the cache")

	// a cached row is still checked against the clock
	e.clock.Advance(25 * time.Hour)
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	assert.ErrorIs(t, err, xerr.ErrShareExpired)
}

func TestResolveShare_StaleCacheEntry(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	sh, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.NeverExpire())
	require.NoError(t, err)
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	require.NoError(t, err)

	// row removed without invalidating the cache, as after a failed Del
	require.NoError(t, e.shares.Delete(ctx, sh.ID))
	ok, _ := e.mem.Exists(ctx, cache.GenerateShareTokenKey(sh.Token))
	require.True(t, ok)

	_, err = e.svc.ResolveShare(ctx, sh.Token)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)

	ok, _ = e.mem.Exists(ctx, cache.GenerateShareTokenKey(sh.Token))
	assert.False(t, ok, "a stale entry is dropped")
}

func TestCreateUserShare_ByUsernameAndEmail(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	res, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, res.AlreadyShared)
	assert.Equal(t, e.bob.ID, res.Recipient.ID)
	assert.Equal(t, models.VisibilityUserSpecific, res.Share.Visibility)
	require.NotNil(t, res.Share.SharedWithUserID)
	assert.Equal(t, e.bob.ID, *res.Share.SharedWithUserID)
	require.NotNil(t, res.Share.ExpirationTime)
	assert.True(t, res.Share.ExpirationTime.Equal(start.AddDate(0, 0, 30)))

	res, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, e.carol.ID, res.Recipient.ID)

	require.Len(t, e.notifier.events, 2)
	assert.Equal(t, e.bob.ID, e.notifier.events[0].SharedWithUserID)
	assert.Equal(t, e.dive.ID, e.notifier.events[0].DiveID)
}

func TestCreateUserShare_Idempotent(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	first, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.NoError(t, err)

	second, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, second.AlreadyShared)
	assert.Equal(t, first.Share.ID, second.Share.ID)
	assert.Equal(t, int64(1), e.countShares(t))
	assert.Len(t, e.notifier.events, 1, "no notification for an existing grant")

	// once the grant lapses a new one is issued
	e.clock.Advance(31 * 24 * time.Hour)
	third, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, third.AlreadyShared)
	assert.NotEqual(t, first.Share.ID, third.Share.ID)
	assert.Equal(t, int64(2), e.countShares(t))
}

func TestCreateUserShare_Failures(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "nonexistentuser")
	require.ErrorIs(t, err, xerr.ErrUserNotFound)
	assert.Contains(t, err.Error(), "nonexistentuser")
	assert.Contains(t, err.Error(), "username")

	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "ghost@example.com")
	require.ErrorIs(t, err, xerr.ErrUserNotFound)
	assert.Contains(t, err.Error(), "email ghost@example.com")

	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.bob.ID, "carol")
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "alice")
	assert.ErrorIs(t, err, xerr.ErrSelfShare)

	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "   ")
	assert.ErrorIs(t, err, xerr.ErrValidationFailed)

	e.carol.Status = models.UserStatusDeactivated
	require.NoError(t, e.users.UpdateUser(ctx, e.carol))
	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "carol")
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)

	assert.Zero(t, e.countShares(t))
	assert.Empty(t, e.notifier.events)
}

func TestCreateShare_RetriesTokenCollision(t *testing.T) {
	e := newEnv(t, &scriptedTokens{tokens: []string{"taken", "taken", "fresh"}})
	ctx := context.Background()

	first, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	assert.Equal(t, "taken", first.Token)

	second, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	assert.Equal(t, "fresh", second.Token)
	assert.Equal(t, int64(2), e.countShares(t))
}

func TestCreateShare_GivesUpWithoutPartialRows(t *testing.T) {
	e := newEnv(t, &scriptedTokens{tokens: []string{"stuck"}})
	ctx := context.Background()

	_, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)

	_, err = e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.Error(t, err)
	_, _, known := xerr.Classify(err)
	assert.False(t, known, "exhausted retries surface as an internal error")
	assert.Equal(t, int64(1), e.countShares(t))
	assert.Empty(t, e.notifier.events)
}

func TestUpdateVisibility(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, models.VisibilityUserSpecific, nil)
	require.ErrorIs(t, err, xerr.ErrShareNotFound)
	assert.Equal(t, "no share record found", err.Error())

	primary, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	other, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)

	_, err = e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, "secret", nil)
	assert.ErrorIs(t, err, xerr.ErrInvalidVisibility)

	_, err = e.svc.UpdateVisibility(ctx, e.dive.ID, e.bob.ID, models.VisibilityUserSpecific, nil)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	updated, err := e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, models.VisibilityUserSpecific, nil)
	require.NoError(t, err)
	assert.Equal(t, primary.ID, updated.ID, "without share_id the oldest share is updated")

	updated, err = e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, models.VisibilityUserSpecific, &other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.ID)

	missing := uint64(9999)
	_, err = e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, models.VisibilityPublic, &missing)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)

	view, err := e.svc.ResolveShare(ctx, other.Token)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityUserSpecific, view.ShareVisibility)
}

func TestUpdateVisibility_InvalidatesCache(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	sh, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	require.NoError(t, err)

	_, err = e.svc.UpdateVisibility(ctx, e.dive.ID, e.alice.ID, models.VisibilityUserSpecific, nil)
	require.NoError(t, err)

	ok, _ := e.mem.Exists(ctx, cache.GenerateShareTokenKey(sh.Token))
	assert.False(t, ok)
}

func TestListSharedWithMe(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	second := &models.Dive{UserID: e.carol.ID, DiveNumber: 1, StartTime: start, EndTime: start.Add(time.Hour), MaxDepth: 30, Location: "Wreck"}
	require.NoError(t, e.dives.Create(ctx, second))

	fromAlice, err := e.svc.CreateUserShare(ctx, e.dive.ID, e.alice.ID, "bob")
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	fromCarol, err := e.svc.CreateUserShare(ctx, second.ID, e.carol.ID, "bob")
	require.NoError(t, err)
	_, err = e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)

	items, err := e.svc.ListSharedWithMe(ctx, e.bob.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, fromCarol.Share.ID, items[0].ShareID)
	assert.Equal(t, "Wreck", items[0].Dive.Location)
	assert.Equal(t, "carol", items[0].SharedBy.Username)
	assert.Equal(t, fromAlice.Share.Token, items[1].Token)

	// expired grants drop out silently
	e.clock.Advance(31 * 24 * time.Hour)
	items, err = e.svc.ListSharedWithMe(ctx, e.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = e.svc.ListSharedWithMe(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListMyShares(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
		require.NoError(t, err)
	}

	shares, total, err := e.svc.ListMyShares(ctx, e.alice.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, shares, 2)

	shares, total, err = e.svc.ListMyShares(ctx, e.bob.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, shares)
}

func TestRevokeShare(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	sh, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.DefaultExpiry())
	require.NoError(t, err)
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	require.NoError(t, err)

	err = e.svc.RevokeShare(ctx, sh.ID, e.bob.ID)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	require.NoError(t, e.svc.RevokeShare(ctx, sh.ID, e.alice.ID))
	_, err = e.svc.ResolveShare(ctx, sh.Token)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound, "revocation also drops the cached row")

	err = e.svc.RevokeShare(ctx, sh.ID, e.alice.ID)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
}

func TestPurgeExpired(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	short, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.ExpireInDays(1))
	require.NoError(t, err)
	long, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.ExpireInDays(10))
	require.NoError(t, err)
	keep, err := e.svc.CreatePublicShare(ctx, e.dive.ID, e.alice.ID, share.NeverExpire())
	require.NoError(t, err)

	n, err := e.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// expired but inside the retention window: kept, still reported as expired
	e.clock.Advance(24 * time.Hour)
	n, err = e.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = e.svc.ResolveShare(ctx, short.Token)
	assert.ErrorIs(t, err, xerr.ErrShareExpired)

	// 30 days after expiry the short share goes, the 10-day one is still retained
	e.clock.Advance(30 * 24 * time.Hour)
	n, err = e.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = e.svc.ResolveShare(ctx, short.Token)
	assert.ErrorIs(t, err, xerr.ErrShareNotFound)
	_, err = e.svc.ResolveShare(ctx, long.Token)
	assert.ErrorIs(t, err, xerr.ErrShareExpired)

	e.clock.Advance(365 * 24 * time.Hour)
	n, err = e.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = e.svc.ResolveShare(ctx, keep.Token)
	assert.NoError(t, err)
}

func TestPurgeExpired_DefaultRetention(t *testing.T) {
	db, err := setup.InitDB(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })

	users, dives, shares := repositories.NewUserRepository(db), repositories.NewDiveRepository(db), repositories.NewShareRepository(db)
	ctx := context.Background()
	owner := &models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, users.CreateUser(ctx, owner))
	d := &models.Dive{UserID: owner.ID, DiveNumber: 1, StartTime: start, EndTime: start.Add(time.Hour), MaxDepth: 10, Location: "Pier"}
	require.NoError(t, dives.Create(ctx, d))

	clk := clock.NewFake(start)
	// a config without a retention falls back to 30 days
	svc := share.NewShareService(shares, dives, users, services.NewTransactionManager(db),
		&config.ShareConfig{PublicExpirationDays: 7, UserExpirationDays: 30}, share.ShareServiceDeps{Clock: clk})

	sh, err := svc.CreatePublicShare(ctx, d.ID, owner.ID, share.ExpireInDays(1))
	require.NoError(t, err)

	clk.Advance(30 * 24 * time.Hour)
	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = svc.ResolveShare(ctx, sh.Token)
	assert.ErrorIs(t, err, xerr.ErrShareExpired)

	clk.Advance(24 * time.Hour)
	n, err = svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewShareService_NilDepsUseDefaults(t *testing.T) {
	db, err := setup.InitDB(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { setup.CloseDB(db) })

	users := repositories.NewUserRepository(db)
	dives := repositories.NewDiveRepository(db)
	owner := &models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, users.CreateUser(context.Background(), owner))
	d := &models.Dive{UserID: owner.ID, StartTime: start, EndTime: start.Add(time.Hour), MaxDepth: 10, Location: "Pier"}
	require.NoError(t, dives.Create(context.Background(), d))

	svc := share.NewShareService(repositories.NewShareRepository(db), dives, users, services.NewTransactionManager(db),
		&config.ShareConfig{PublicExpirationDays: 7, UserExpirationDays: 30}, share.ShareServiceDeps{})

	sh, err := svc.CreatePublicShare(context.Background(), d.ID, owner.ID, share.DefaultExpiry())
	require.NoError(t, err)
	view, err := svc.ResolveShare(context.Background(), sh.Token)
	require.NoError(t, err)
	assert.Equal(t, "Pier", view.Location)
}
