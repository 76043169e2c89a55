package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/models"
	"github.com/3Eeeecho/go-divelog/internal/pkg/clock"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"go.uber.org/zap"
)

// Cache is a JSON value cache.
type Cache interface {
	// Set stores value, which must be JSON marshalable, under key.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Get unmarshals the value under key into target. It returns ErrCacheMiss
	// when the key does not exist.
	Get(ctx context.Context, key string, target any) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func GenerateShareTokenKey(token string) string {
	return fmt.Sprintf("share:token:%s", token)
}

// ShareCache caches Share rows by token. Rows carry their expiration time,
// so a cached row is evaluated against the clock exactly like a fresh one.
type ShareCache interface {
	GetShare(ctx context.Context, token string) (*models.Share, error)
	SetShare(ctx context.Context, share *models.Share) error
	InvalidateTokens(ctx context.Context, tokens ...string) error
}

type shareCache struct {
	cache Cache
	ttl   time.Duration
	clock clock.Clock
}

func NewShareCache(c Cache, ttl time.Duration, clk clock.Clock) ShareCache {
	return &shareCache{cache: c, ttl: ttl, clock: clk}
}

func (s *shareCache) GetShare(ctx context.Context, token string) (*models.Share, error) {
	var share models.Share
	if err := s.cache.Get(ctx, GenerateShareTokenKey(token), &share); err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *shareCache) SetShare(ctx context.Context, share *models.Share) error {
	ttl := s.ttl
	if share.ExpirationTime != nil {
		// never cache past the expiry
		if left := share.ExpirationTime.Sub(s.clock.Now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, GenerateShareTokenKey(share.Token), share, ttl)
}

func (s *shareCache) InvalidateTokens(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = GenerateShareTokenKey(t)
	}
	return s.cache.Del(ctx, keys...)
}

type nopShareCache struct{}

// NopShareCache is used when Redis is not configured; every lookup misses.
func NopShareCache() ShareCache { return nopShareCache{} }

func (nopShareCache) GetShare(context.Context, string) (*models.Share, error) {
	return nil, ErrCacheMiss
}

func (nopShareCache) SetShare(context.Context, *models.Share) error { return nil }

func (nopShareCache) InvalidateTokens(context.Context, ...string) error { return nil }

// IsMiss reports whether err is a plain cache miss rather than a backend failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// LogFailure records a cache error that the caller chose to tolerate.
func LogFailure(op string, err error, fields ...zap.Field) {
	if err == nil || IsMiss(err) {
		return
	}
	logger.Warn(op+": share cache unavailable", append(fields, zap.Error(err))...)
}
