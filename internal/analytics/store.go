package analytics

import (
	"context"
	"errors"
)

// ErrWriteFailed marks an analytics event that could not be queued, published
// or persisted. It is logged and never surfaced to link visitors.
var ErrWriteFailed = errors.New("analytics write failed")

// Store persists analytics events.
type Store interface {
	SaveClick(ctx context.Context, event *ClickEvent) error
	SaveImpression(ctx context.Context, event *ImpressionEvent) error
}

// StatsReader aggregates stored events for a single link.
type StatsReader interface {
	LinkStats(ctx context.Context, linkID string) (*Stats, error)
}

// Stats is the per-link aggregate. Breakdown maps count clicks.
type Stats struct {
	Clicks      int64            `json:"clicks"`
	Impressions int64            `json:"impressions"`
	Devices     map[string]int64 `json:"devices"`
	OS          map[string]int64 `json:"os"`
	Browsers    map[string]int64 `json:"browsers"`
	Countries   map[string]int64 `json:"countries"`
	Referrers   map[string]int64 `json:"referrers"`
}

func NewStats() *Stats {
	return &Stats{
		Devices:   map[string]int64{},
		OS:        map[string]int64{},
		Browsers:  map[string]int64{},
		Countries: map[string]int64{},
		Referrers: map[string]int64{},
	}
}
