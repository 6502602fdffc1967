package xhttp

import (
	"fmt"
	"net/http"

	"github.com/mrcode/nightscout-widget/internal/version"
)

type widgetTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*widgetTransport)(nil)

func (t *widgetTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(UserAgent, version.UserAgent())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewTransport returns an http.RoundTripper that stamps the widget User-Agent.
func NewTransport() http.RoundTripper {
	return &widgetTransport{base: http.DefaultTransport}
}
