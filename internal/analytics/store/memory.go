package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink/internal/analytics"
)

// Memory keeps events in process. Used by tests and single-node development.
type Memory struct {
	mu          sync.RWMutex
	clicks      map[string]analytics.ClickEvent
	impressions map[string]analytics.ImpressionEvent
}

var (
	_ analytics.Store       = (*Memory)(nil)
	_ analytics.StatsReader = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		clicks:      make(map[string]analytics.ClickEvent),
		impressions: make(map[string]analytics.ImpressionEvent),
	}
}

func (m *Memory) SaveClick(_ context.Context, event *analytics.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clicks[event.EventID] = *event

	return nil
}

func (m *Memory) SaveImpression(_ context.Context, event *analytics.ImpressionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.impressions[event.EventID] = *event

	return nil
}

func (m *Memory) LinkStats(_ context.Context, linkID string) (*analytics.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := analytics.NewStats()

	for _, c := range m.clicks {
		if c.LinkID != linkID {
			continue
		}

		stats.Clicks++
		stats.Devices[orUnknown(string(c.Device))]++
		stats.OS[orUnknown(c.OS)]++
		stats.Browsers[orUnknown(c.Browser)]++
		stats.Countries[orUnknown(c.Country)]++
		stats.Referrers[analytics.ReferrerHost(c.Referrer)]++
	}

	for _, i := range m.impressions {
		if i.LinkID == linkID {
			stats.Impressions++
		}
	}

	return stats, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}
