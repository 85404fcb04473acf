package store

import (
	"context"

	"github.com/serroba/shortlink/internal/analytics"
	"go.uber.org/zap"
)

// Noop logs events instead of persisting them and reports empty stats.
type Noop struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveClick(_ context.Context, event *analytics.ClickEvent) error {
	n.logger.Info("click event received",
		zap.String("code", event.Code),
		zap.String("device", string(event.Device)),
		zap.String("country", event.Country),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

func (n *Noop) SaveImpression(_ context.Context, event *analytics.ImpressionEvent) error {
	n.logger.Info("impression event received",
		zap.String("code", event.Code),
		zap.String("referrer", event.Referrer),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

func (n *Noop) LinkStats(_ context.Context, _ string) (*analytics.Stats, error) {
	return analytics.NewStats(), nil
}
