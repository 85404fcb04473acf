package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	analyticsstore "github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/worker"
	"go.uber.org/zap"
)

// backgroundTaskTimeout bounds a single deactivation or publish task.
const backgroundTaskTimeout = 5 * time.Second

func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)
		pool := do.MustInvoke[*PostgresPool](i)
		client := do.MustInvoke[*RedisClient](i)

		return store.NewRedisCacheRepository(store.NewPostgresStore(pool.Pool), client.Client, opts.CacheTTL()), nil
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client.Client},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// QueuePackage provides the started background queue. Shutdown drains it.
func QueuePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*worker.Queue, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		queue := worker.NewQueue(opts.QueueSize, opts.QueueWorkers, backgroundTaskTimeout, logger.Named("worker"))
		if err := queue.Start(context.Background()); err != nil {
			return nil, err
		}

		return queue, nil
	})
}

func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Recorder, error) {
		// The publisher is resolved before the queue so the injector drains
		// the queue before closing the publisher on shutdown.
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		queue := do.MustInvoke[*worker.Queue](i)

		return analytics.NewRecorder(
			messaging.NewAsyncPublish(queue, "publish-click",
				messaging.NewPublishFunc[analytics.ClickEvent](group.Publisher(), analytics.TopicLinkClicked)),
			messaging.NewAsyncPublish(queue, "publish-impression",
				messaging.NewPublishFunc[analytics.ImpressionEvent](group.Publisher(), analytics.TopicLinkImpressed)),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (analytics.StatsReader, error) {
		pool := do.MustInvoke[*PostgresPool](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return analyticsstore.NewPostgres(pool.Pool, logger), nil
	})
}

func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		repo := do.MustInvoke[shortener.Repository](i)
		recorder := do.MustInvoke[*analytics.Recorder](i)
		queue := do.MustInvoke[*worker.Queue](i)

		generate, err := shortener.NewCodeGenerator()
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			repo,
			shortener.NewAllocator(repo, generate, logger),
			recorder,
			queue,
			logger,
			shortener.WithStoreTimeout(opts.StoreTimeout()),
		), nil
	})
}

func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		client := do.MustInvoke[*RedisClient](i)

		return store.NewRateLimitRedisStore(client.Client), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		counters := do.MustInvoke[ratelimit.Store](i)

		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, int64(opts.ReadLimitPerMinute), time.Minute).
			AddLimit(ratelimit.ScopeWrite, int64(opts.WriteLimitPerMinute), time.Minute).
			AddLimit(ratelimit.ScopeRedirect, int64(opts.RedirectLimitPerMinute), time.Minute).
			Build()

		return ratelimit.NewPolicyLimiter(counters, policy), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.FixedWindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		counters := do.MustInvoke[ratelimit.Store](i)

		return ratelimit.NewFixedWindowLimiter(counters, "shorten", int64(opts.ShortenLimit), opts.ShortenWindow()), nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		ips, err := middleware.NewClientIPResolver(opts.TrustedProxyList())
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Shortlink", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api, ips),
			middleware.PolicyRateLimiter(
				api,
				do.MustInvoke[*ratelimit.PolicyLimiter](i),
				ratelimit.NewOperationScopeResolver(),
				ips,
				logger.Named("ratelimit"),
			),
		)

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[*ratelimit.FixedWindowLimiter](i),
			do.MustInvoke[analytics.StatsReader](i),
			opts.PublicBaseURL(),
			logger,
		))

		health.RegisterRoutes(api, health.NewHandler(map[string]health.Checker{
			"redis":    health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client),
			"postgres": health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool),
		}))

		return api, nil
	})
}
