package shortener

import (
	"fmt"
	"time"
)

// Expiry is the lifetime option chosen when creating a link.
type Expiry string

const (
	ExpirySevenDays Expiry = "7days"
	ExpiryOneMonth  Expiry = "1month"
	ExpiryNever     Expiry = "never"
)

const (
	sevenDays = 7 * 24 * time.Hour
	oneMonth  = 30 * 24 * time.Hour
)

// ExpiresAt computes the expiry instant for a link created at createdAt.
// Anonymous links always expire after seven days and their option is not
// validated. For owners an empty option means seven days.
func ExpiresAt(owner string, option Expiry, createdAt time.Time) (*time.Time, error) {
	if owner == "" {
		at := createdAt.Add(sevenDays)

		return &at, nil
	}

	var ttl time.Duration

	switch option {
	case "", ExpirySevenDays:
		ttl = sevenDays
	case ExpiryOneMonth:
		ttl = oneMonth
	case ExpiryNever:
		ttl = 0
	default:
		return nil, fmt.Errorf("%w: expiry must be one of 7days, 1month, never", ErrInvalidInput)
	}

	if ttl == 0 {
		return nil, nil
	}

	at := createdAt.Add(ttl)

	return &at, nil
}
