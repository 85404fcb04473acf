package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit a rejected request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// Message renders the rejection for a 429 response body.
func (e *LimitExceeded) Message() string {
	if e.Scope == "" {
		return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Config.Max, e.Config.Window)
	}

	return fmt.Sprintf("rate limit exceeded: %s scope, %d requests per %s", e.Scope, e.Config.Max, e.Config.Window)
}

// PolicyLimiter enforces a Policy for whichever scopes apply to a request.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of every scope and stops at
// the first one exceeded. A nil LimitExceeded means the request may proceed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("policy:%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			count, err := l.store.Record(ctx, key, limit.Window)
			if err != nil {
				return nil, err
			}

			if count > limit.Max {
				return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
			}
		}
	}

	return nil, nil
}

// AllowRoute applies limits declared on a single route instead of the policy.
// Counters are shared by all requests matching the same route template.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context,
	clientKey, route string,
	limits []LimitConfig,
) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("route:%s:%s:%d", clientKey, route, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &LimitExceeded{Config: limit, Count: count}, nil
		}
	}

	return nil, nil
}
