package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

type Device string

const (
	DeviceUnknown Device = "unknown"
	DeviceBot     Device = "bot"
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// Client is what can be learned about a visitor from its User-Agent header.
type Client struct {
	Device  Device
	OS      string
	Browser string
}

// ParseUserAgent classifies a raw User-Agent header. An empty header yields
// DeviceUnknown with no OS or browser.
func ParseUserAgent(raw string) Client {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Client{Device: DeviceUnknown}
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()

	client := Client{
		OS:      ua.OSInfo().Name,
		Browser: browser,
	}

	lower := strings.ToLower(raw)

	switch {
	case ua.Bot():
		client.Device = DeviceBot
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		client.Device = DeviceTablet
	case ua.Mobile():
		client.Device = DeviceMobile
	default:
		client.Device = DeviceDesktop
	}

	return client
}
