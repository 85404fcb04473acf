package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateDestination checks that rawURL is an absolute http(s) URL with a host.
// The destination is stored exactly as given; it is never rewritten.
func ValidateDestination(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: destination is not a valid url", ErrInvalidInput)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: destination must use http or https", ErrInvalidInput)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: destination must include a host", ErrInvalidInput)
	}

	return nil
}
