package handlers

import (
	"time"

	"github.com/serroba/shortlink/internal/analytics"
)

// ShortenRequest fields are all optional at the schema level so that a missing
// destination surfaces as a 400 from domain validation.
type ShortenRequest struct {
	Body struct {
		Destination string `doc:"The URL to shorten" example:"https://example.com/a" json:"destination,omitempty"`
		Owner       string `doc:"Creating user, omitted for anonymous links" example:"user_123" json:"owner,omitempty"`
		Expiry      string `doc:"Lifetime of owned links: 7days, 1month or never" example:"1month" json:"expiry,omitempty"`
		Title       string `doc:"Optional title" json:"title,omitempty"`
		Description string `doc:"Optional description" json:"description,omitempty"`
	}
}

type ShortenResponse struct {
	Location string `doc:"The short URL" header:"Location"`
	Body     struct {
		ID          string     `doc:"Link id" json:"id"`
		Code        string     `doc:"The short code" example:"aB3dE9z" json:"code"`
		ShortURL    string     `doc:"The full short URL" example:"http://localhost:8888/aB3dE9z" json:"shortUrl"`
		Destination string     `doc:"The destination URL" json:"destination"`
		ExpiresAt   *time.Time `doc:"Expiry instant, null when the link never expires" json:"expiresAt"`
	}
}

type CodeRequest struct {
	Code string `doc:"The short code" example:"aB3dE9z" path:"code"`
}

type ResolveResponse struct {
	Body struct {
		Destination string `doc:"The destination URL" json:"destination"`
	}
}

type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}

type OKResponse struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

type OwnedLinkRequest struct {
	ID    string `doc:"Link id" path:"id"`
	Owner string `doc:"Requesting owner identity" query:"owner"`
}

type StatsResponse struct {
	Body struct {
		ID    string           `json:"id"`
		Code  string           `json:"code"`
		Stats *analytics.Stats `json:"stats"`
	}
}

func okResponse() *OKResponse {
	resp := &OKResponse{}
	resp.Body.OK = true

	return resp
}
