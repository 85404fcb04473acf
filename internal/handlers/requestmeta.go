package handlers

import (
	"context"

	"github.com/serroba/shortlink/internal/shortener"
)

type requestMetaKey struct{}

// RequestMeta holds the visitor attributes captured by the request middleware.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Country   string
}

func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the stored metadata, or the zero value when
// the middleware did not run.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (m RequestMeta) Visit() shortener.Visit {
	return shortener.Visit{
		ClientIP:  m.ClientIP,
		UserAgent: m.UserAgent,
		Referrer:  m.Referrer,
		Country:   m.Country,
	}
}
