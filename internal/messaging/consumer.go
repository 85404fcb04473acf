package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds a single handler invocation.
const DefaultHandlerTimeout = 10 * time.Second

// Handler persists or otherwise processes one decoded event.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer subscribes to a topic and feeds decoded payloads to a typed handler.
// Malformed payloads are acked and dropped since redelivery cannot fix them;
// handler failures are nacked so the broker redelivers.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	timeout    time.Duration
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	timeout time.Duration
}

// WithHandlerTimeout overrides DefaultHandlerTimeout.
func WithHandlerTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.timeout = d
	}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	o := consumerOptions{timeout: DefaultHandlerTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		timeout:    o.timeout,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages until Shutdown or ctx is cancelled.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("dropping undecodable event",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		msg.Ack()

		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.handler(hctx, &event); err != nil {
		c.logger.Warn("event handler failed, requesting redelivery",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed event", zap.String("message_id", msg.UUID))
}

// Shutdown stops the consumer and waits for the in-flight message.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
