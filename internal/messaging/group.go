package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is anything with a start/stop lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type member struct {
	name string
	Runnable
}

// ConsumerGroup runs the consumers of one process over a shared subscriber.
// Members start in registration order and stop in reverse.
type ConsumerGroup struct {
	members    []member
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer under name, used in logs and errors.
func (g *ConsumerGroup) Add(name string, consumer Runnable) *ConsumerGroup {
	g.members = append(g.members, member{name: name, Runnable: consumer})

	return g
}

// Names lists the registered consumers in start order.
func (g *ConsumerGroup) Names() []string {
	names := make([]string, len(g.members))
	for i, m := range g.members {
		names[i] = m.name
	}

	return names
}

// Start starts every consumer. If one fails, those already running are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, m := range g.members {
		if err := m.Start(ctx); err != nil {
			g.stop(g.members[:i])

			return fmt.Errorf("start consumer %q: %w", m.name, err)
		}

		g.logger.Debug("consumer started", zap.String("consumer", m.name))
	}

	g.logger.Info("consumer group started", zap.Strings("consumers", g.Names()))

	return nil
}

// Shutdown stops every consumer, then closes the subscriber.
// All failures are reported together.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	err := g.stop(g.members)

	if closeErr := g.subscriber.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close subscriber: %w", closeErr))
	}

	return err
}

func (g *ConsumerGroup) stop(members []member) error {
	var errs []error

	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]
		if err := m.Shutdown(); err != nil {
			g.logger.Warn("consumer shutdown failed", zap.String("consumer", m.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("stop consumer %q: %w", m.name, err))
		}
	}

	return errors.Join(errs...)
}
