package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/handlers"
)

// CountryHeader is set by the CDN with the visitor's ISO country code.
const CountryHeader = "CF-IPCountry"

// RequestMeta stores the visitor attributes used for analytics and per-client
// limits in the request context.
func RequestMeta(_ huma.API, ips *ClientIPResolver) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  ips.ClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			Country:   country(ctx.Header(CountryHeader)),
		}

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}

// country drops the placeholder codes the CDN sends for unknown or Tor traffic.
func country(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code == "XX" || code == "T1" {
		return ""
	}

	return code
}
