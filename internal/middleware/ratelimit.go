package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter applies per-client limits before the handler runs.
//
// Operations may attach a ratelimit.EndpointConfig under ratelimit.MetadataKey
// to disable limiting, pick a scope, or declare route-specific limits.
// Everything else gets the policy limits of the scopes chosen by resolver.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	ips *ClientIPResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		route := operationPath(ctx)
		cfg := ratelimit.GetEndpointConfig(ctx)

		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		var (
			exceeded *ratelimit.LimitExceeded
			err      error
			key      = clientKey(ips.ClientIP(ctx), ctx.Header("User-Agent"))
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			exceeded, err = limiter.AllowRoute(ctx.Context(), key, route, cfg.Limits)
		} else {
			exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("route", route), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "rate limiter unavailable")

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("route", route),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, exceeded.Message())

			return
		}

		next(ctx)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
