package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
)

// RegisterRoutes registers the link API with per-endpoint rate limit metadata.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "shorten",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short link",
		Description:   "Allocates a unique 7 character code for the destination. Anonymous links expire after 7 days.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite},
		},
	}, h.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "resolve",
		Method:      http.MethodGet,
		Path:        "/resolve/{code}",
		Summary:     "Resolve short link",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, h.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "recordImpression",
		Method:      http.MethodPost,
		Path:        "/impression/{code}",
		Summary:     "Record interstitial impression",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, h.RecordImpression)

	huma.Register(api, huma.Operation{
		OperationID: "deleteLink",
		Method:      http.MethodDelete,
		Path:        "/links/{id}",
		Summary:     "Delete owned link",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "linkStats",
		Method:      http.MethodGet,
		Path:        "/links/{id}/stats",
		Summary:     "Click and impression statistics",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Stats)

	// Static paths such as /health and /docs win over this catch-all in chi.
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to destination",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Redirect)
}
