package share

import (
	"time"

	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
)

type expiryMode int

const (
	expiryDefault expiryMode = iota
	expiryNever
	expiryDays
)

// Expiry is the requested lifetime of a public share: the configured
// default, never, or an explicit number of days.
type Expiry struct {
	mode expiryMode
	days int
}

func DefaultExpiry() Expiry { return Expiry{mode: expiryDefault} }

func NeverExpire() Expiry { return Expiry{mode: expiryNever} }

func ExpireInDays(days int) Expiry { return Expiry{mode: expiryDays, days: days} }

// At resolves the expiry to an absolute time. A nil time means the share
// never expires.
func (e Expiry) At(now time.Time, defaultDays, maxDays int) (*time.Time, error) {
	var days int
	switch e.mode {
	case expiryNever:
		return nil, nil
	case expiryDefault:
		days = defaultDays
	default:
		if e.days < 1 {
			return nil, xerr.Wrapf(xerr.ErrValidationFailed, "expiration_days must be a positive integer or null")
		}
		if maxDays > 0 && e.days > maxDays {
			return nil, xerr.Wrapf(xerr.ErrValidationFailed, "expiration_days must not exceed %d", maxDays)
		}
		days = e.days
	}
	t := now.AddDate(0, 0, days)
	return &t, nil
}
