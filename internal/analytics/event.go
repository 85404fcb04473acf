package analytics

import "time"

const (
	TopicLinkClicked   = "link.clicked"
	TopicLinkImpressed = "link.impressed"
)

// Attributes describe the visitor behind a click or impression.
type Attributes struct {
	ClientIP  string `json:"clientIp"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer,omitempty"`
	Device    Device `json:"device"`
	OS        string `json:"os,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Country   string `json:"country,omitempty"`
}

// ClickEvent is emitted for every successful redirect.
type ClickEvent struct {
	EventID    string    `json:"eventId"`
	LinkID     string    `json:"linkId"`
	Code       string    `json:"code"`
	OccurredAt time.Time `json:"occurredAt"`
	Attributes
}

// ImpressionEvent is emitted when a client reports that a link was displayed.
type ImpressionEvent struct {
	EventID    string    `json:"eventId"`
	LinkID     string    `json:"linkId"`
	Code       string    `json:"code"`
	OccurredAt time.Time `json:"occurredAt"`
	Attributes
}
