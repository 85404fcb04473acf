package ratelimit

import "time"

// LimitConfig caps requests to Max within Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them. A scope may carry
// several limits, e.g. a burst window and a longer sustained one.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

type PolicyBuilder struct {
	limits map[Scope][]LimitConfig
}

func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{limits: make(map[Scope][]LimitConfig)}
}

// AddLimit appends a limit to scope. Non-positive values are ignored so an
// unset option disables the limit.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	if maxRequests <= 0 || window <= 0 {
		return b
	}

	b.limits[scope] = append(b.limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

func (b *PolicyBuilder) Build() *Policy {
	limits := make(map[Scope][]LimitConfig, len(b.limits))
	for scope, configs := range b.limits {
		limits[scope] = append([]LimitConfig(nil), configs...)
	}

	return &Policy{Limits: limits}
}
