package container

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	analyticsstore "github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/config"
	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerOptions adapts the viper consumer config to the shared Options used
// by the infrastructure packages.
func ConsumerOptions(cfg *config.Consumer) *Options {
	return &Options{
		RedisAddr:   cfg.Redis.Addr,
		DatabaseURL: cfg.Database.URL,
		LogFormat:   cfg.Log.Format,
		LogLevel:    cfg.Log.Level,
	}
}

func SinkPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		cfg := do.MustInvoke[*config.Consumer](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if cfg.Sink == config.SinkLog {
			return analyticsstore.NewNoop(logger), nil
		}

		pool, err := do.Invoke[*PostgresPool](i)
		if err != nil {
			return nil, err
		}

		return analyticsstore.NewPostgres(pool.Pool, logger), nil
	})
}

// ConsumerGroupPackage wires one consumer per analytics topic onto a shared
// Redis streams subscriber.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		cfg := do.MustInvoke[*config.Consumer](i)
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)
		sink := do.MustInvoke[analytics.Store](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client.Client,
				ConsumerGroup: cfg.Redis.ConsumerGroup,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, err
		}

		timeout := messaging.WithHandlerTimeout(cfg.HandlerTimeout)

		group := messaging.NewConsumerGroup(subscriber, logger).
			Add("clicks", messaging.NewConsumer(subscriber, analytics.TopicLinkClicked, sink.SaveClick, logger, timeout)).
			Add("impressions", messaging.NewConsumer(subscriber, analytics.TopicLinkImpressed, sink.SaveImpression, logger, timeout))

		return group, nil
	})
}
