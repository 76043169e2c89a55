package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEntry struct {
	data []byte
	ttl  time.Duration
}

type memCache struct {
	items map[string]memEntry
}

func newMemCache() *memCache {
	return &memCache{items: map[string]memEntry{}}
}

func (m *memCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = memEntry{data: data, ttl: expiration}
	return nil
}

func (m *memCache) Get(_ context.Context, key string, target any) error {
	e, ok := m.items[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, target)
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.items[key]
	return ok, nil
}

func TestShareCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newMemCache()
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	sc := NewShareCache(mem, 10*time.Minute, clk)

	_, err := sc.GetShare(ctx, "abc")
	require.ErrorIs(t, err, ErrCacheMiss)
	assert.True(t, IsMiss(err))

	share := &models.Share{ID: 7, DiveID: 3, CreatorUserID: 1, Token: "abc", Visibility: models.VisibilityPublic, CreatedAt: clk.Now()}
	require.NoError(t, sc.SetShare(ctx, share))
	assert.Equal(t, 10*time.Minute, mem.items[GenerateShareTokenKey("abc")].ttl)

	got, err := sc.GetShare(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.ID)
	assert.Equal(t, uint64(3), got.DiveID)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)

	require.NoError(t, sc.InvalidateTokens(ctx, "abc"))
	_, err = sc.GetShare(ctx, "abc")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestShareCache_TTLClampedToExpiry(t *testing.T) {
	ctx := context.Background()
	mem := newMemCache()
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	sc := NewShareCache(mem, 10*time.Minute, clk)

	soon := clk.Now().Add(2 * time.Minute)
	require.NoError(t, sc.SetShare(ctx, &models.Share{Token: "soon", ExpirationTime: &soon}))
	assert.Equal(t, 2*time.Minute, mem.items[GenerateShareTokenKey("soon")].ttl)

	past := clk.Now().Add(-time.Minute)
	require.NoError(t, sc.SetShare(ctx, &models.Share{Token: "past", ExpirationTime: &past}))
	_, ok := mem.items[GenerateShareTokenKey("past")]
	assert.False(t, ok, "expired shares are not cached")
}

func TestNopShareCache(t *testing.T) {
	ctx := context.Background()
	sc := NopShareCache()
	require.NoError(t, sc.SetShare(ctx, &models.Share{Token: "x"}))
	_, err := sc.GetShare(ctx, "x")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, sc.InvalidateTokens(ctx, "x"))
}
