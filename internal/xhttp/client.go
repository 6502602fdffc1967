package xhttp

import (
	"net/http"
	"time"
)

// DefaultTimeout matches the timeout the Nightscout client has always used.
const DefaultTimeout = 30 * time.Second

type ClientOption func(*http.Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *http.Client) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *http.Client) { c.Transport = rt }
}

func NewHTTPClient(opts ...ClientOption) *http.Client {
	c := &http.Client{Transport: NewTransport(), Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
