package shortener

import "errors"

var (
	// ErrInvalidInput is returned for a malformed destination, expiry or missing field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for unknown, deleted or deactivated links.
	ErrNotFound = errors.New("link not found")
	// ErrExpired is returned when a link exists but is past its expiry.
	ErrExpired = errors.New("link expired")
	// ErrForbidden is returned when the requester does not own the link.
	ErrForbidden = errors.New("forbidden")
	// ErrExhaustedRetries is returned when no free code was found within the attempt budget.
	ErrExhaustedRetries = errors.New("short code allocation exhausted retries")
	// ErrConflict is returned by stores when a code is already taken.
	ErrConflict = errors.New("short code already exists")
	// ErrUnavailable is returned when the backing store fails or times out.
	ErrUnavailable = errors.New("link store unavailable")
)
