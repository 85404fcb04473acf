package shortener

import "time"

// Code represents a short link code.
type Code string

// Link represents a shortened link entity.
type Link struct {
	ID          string
	Code        Code
	Destination string
	Owner       string // empty for anonymous links
	Title       string
	Description string
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil means the link never expires
	Active      bool
}

// Anonymous reports whether the link was created without an owner.
func (l *Link) Anonymous() bool {
	return l.Owner == ""
}

// ExpiredAt reports whether the link is past its expiry at the given instant.
func (l *Link) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// Visit holds request attributes captured when a link is resolved or displayed.
type Visit struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Country   string
}
