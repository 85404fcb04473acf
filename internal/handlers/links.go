package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Links is the subset of shortener.Service the HTTP layer drives.
type Links interface {
	Shorten(ctx context.Context, in shortener.ShortenInput) (*shortener.Link, error)
	Resolve(ctx context.Context, code shortener.Code, visit shortener.Visit) (string, error)
	RecordImpression(ctx context.Context, code shortener.Code, visit shortener.Visit) error
	Delete(ctx context.Context, id, owner string) error
	OwnedLink(ctx context.Context, id, owner string) (*shortener.Link, error)
}

// ShortenLimiter caps link creation per owner.
type ShortenLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
	Describe() string
}

// LinkHandler serves the link API.
type LinkHandler struct {
	links   Links
	limiter ShortenLimiter
	stats   analytics.StatsReader
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(
	links Links,
	limiter ShortenLimiter,
	stats analytics.StatsReader,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		links:   links,
		limiter: limiter,
		stats:   stats,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	meta := RequestMetaFromContext(ctx)

	// Anonymous callers share the limit per client address.
	key := "owner:" + req.Body.Owner
	if req.Body.Owner == "" {
		key = "ip:" + meta.ClientIP
	}

	decision, err := h.limiter.Allow(ctx, key)
	if err != nil {
		h.logger.Error("shorten rate limit check failed", zap.Error(err))

		return nil, huma.Error503ServiceUnavailable("rate limiter unavailable")
	}

	if !decision.Allowed {
		return nil, huma.Error429TooManyRequests("rate limit exceeded: " + h.limiter.Describe())
	}

	link, err := h.links.Shorten(ctx, shortener.ShortenInput{
		Destination: req.Body.Destination,
		Owner:       req.Body.Owner,
		Expiry:      shortener.Expiry(req.Body.Expiry),
		Title:       req.Body.Title,
		Description: req.Body.Description,
	})
	if err != nil {
		return nil, h.httpError(err)
	}

	shortURL := h.baseURL + "/" + string(link.Code)

	resp := &ShortenResponse{Location: shortURL}
	resp.Body.ID = link.ID
	resp.Body.Code = string(link.Code)
	resp.Body.ShortURL = shortURL
	resp.Body.Destination = link.Destination
	resp.Body.ExpiresAt = link.ExpiresAt

	return resp, nil
}

func (h *LinkHandler) Resolve(ctx context.Context, req *CodeRequest) (*ResolveResponse, error) {
	destination, err := h.links.Resolve(ctx, shortener.Code(req.Code), RequestMetaFromContext(ctx).Visit())
	if err != nil {
		return nil, h.httpError(err)
	}

	resp := &ResolveResponse{}
	resp.Body.Destination = destination

	return resp, nil
}

// Redirect is Resolve answered with a 302 so links work straight from a browser.
func (h *LinkHandler) Redirect(ctx context.Context, req *CodeRequest) (*RedirectResponse, error) {
	destination, err := h.links.Resolve(ctx, shortener.Code(req.Code), RequestMetaFromContext(ctx).Visit())
	if err != nil {
		return nil, h.httpError(err)
	}

	return &RedirectResponse{Status: http.StatusFound, Location: destination}, nil
}

func (h *LinkHandler) RecordImpression(ctx context.Context, req *CodeRequest) (*OKResponse, error) {
	err := h.links.RecordImpression(ctx, shortener.Code(req.Code), RequestMetaFromContext(ctx).Visit())
	if err != nil {
		return nil, h.httpError(err)
	}

	return okResponse(), nil
}

func (h *LinkHandler) Delete(ctx context.Context, req *OwnedLinkRequest) (*OKResponse, error) {
	if err := h.links.Delete(ctx, req.ID, req.Owner); err != nil {
		return nil, h.httpError(err)
	}

	return okResponse(), nil
}

func (h *LinkHandler) Stats(ctx context.Context, req *OwnedLinkRequest) (*StatsResponse, error) {
	link, err := h.links.OwnedLink(ctx, req.ID, req.Owner)
	if err != nil {
		return nil, h.httpError(err)
	}

	stats, err := h.stats.LinkStats(ctx, link.ID)
	if err != nil {
		h.logger.Error("link stats query failed", zap.String("id", link.ID), zap.Error(err))

		return nil, huma.Error503ServiceUnavailable("analytics unavailable")
	}

	resp := &StatsResponse{}
	resp.Body.ID = link.ID
	resp.Body.Code = string(link.Code)
	resp.Body.Stats = stats

	return resp, nil
}

// httpError maps the domain taxonomy onto status codes. Only failures an
// operator must act on are logged at error level.
func (h *LinkHandler) httpError(err error) error {
	switch {
	case errors.Is(err, shortener.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("link not found")
	case errors.Is(err, shortener.ErrExpired):
		return huma.Error410Gone("link expired")
	case errors.Is(err, shortener.ErrForbidden):
		return huma.Error403Forbidden("not the owner of this link")
	case errors.Is(err, shortener.ErrExhaustedRetries):
		return huma.Error500InternalServerError("could not allocate a short code")
	case errors.Is(err, shortener.ErrUnavailable):
		h.logger.Error("link store unavailable", zap.Error(err))

		return huma.Error503ServiceUnavailable("link store unavailable")
	default:
		h.logger.Error("unexpected link error", zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
