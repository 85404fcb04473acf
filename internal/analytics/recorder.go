package analytics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
)

// Recorder turns visits into analytics events and hands them to publish funcs.
// The funcs are expected to be async (see messaging.NewAsyncPublish) so the
// redirect path never waits on the broker.
type Recorder struct {
	publishClick      messaging.Publish[ClickEvent]
	publishImpression messaging.Publish[ImpressionEvent]
}

var _ shortener.Recorder = (*Recorder)(nil)

func NewRecorder(
	publishClick messaging.Publish[ClickEvent],
	publishImpression messaging.Publish[ImpressionEvent],
) *Recorder {
	return &Recorder{
		publishClick:      publishClick,
		publishImpression: publishImpression,
	}
}

func (r *Recorder) RecordClick(link *shortener.Link, visit shortener.Visit, at time.Time) error {
	event := &ClickEvent{
		EventID:    uuid.NewString(),
		LinkID:     link.ID,
		Code:       string(link.Code),
		OccurredAt: at,
		Attributes: attributesFor(visit),
	}

	if err := r.publishClick(context.Background(), event); err != nil {
		return fmt.Errorf("%w: click %s: %w", ErrWriteFailed, link.Code, err)
	}

	return nil
}

func (r *Recorder) RecordImpression(link *shortener.Link, visit shortener.Visit, at time.Time) error {
	event := &ImpressionEvent{
		EventID:    uuid.NewString(),
		LinkID:     link.ID,
		Code:       string(link.Code),
		OccurredAt: at,
		Attributes: attributesFor(visit),
	}

	if err := r.publishImpression(context.Background(), event); err != nil {
		return fmt.Errorf("%w: impression %s: %w", ErrWriteFailed, link.Code, err)
	}

	return nil
}

func attributesFor(visit shortener.Visit) Attributes {
	client := ParseUserAgent(visit.UserAgent)

	return Attributes{
		ClientIP:  visit.ClientIP,
		UserAgent: visit.UserAgent,
		Referrer:  visit.Referrer,
		Device:    client.Device,
		OS:        client.OS,
		Browser:   client.Browser,
		Country:   strings.ToUpper(strings.TrimSpace(visit.Country)),
	}
}

// ReferrerHost reduces a Referer header to its host for aggregation.
// Missing or unparsable referrers count as "direct".
func ReferrerHost(raw string) string {
	if raw == "" {
		return "direct"
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "direct"
	}

	return strings.ToLower(u.Hostname())
}
