// Package nightscout provides a client for the Nightscout REST API and the entry decoder
package nightscout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xhttp"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// Endpoints used by the widget
const (
	EndpointEntries    = "/api/v1/entries.json"
	EndpointProperties = "/api/v2/properties"
	EndpointStatus     = "/api/v1/status.json"
)

// maxBodySize caps how much of a response is read
const maxBodySize = 4 << 20

// Config holds the connection settings for one request
type Config struct {
	BaseURL string
	Token   string
}

// ConfigSource supplies connection settings. It is consulted on every call so that
// edits made by the settings surface apply to the next request.
type ConfigSource interface {
	NightscoutConfig(ctx context.Context) (Config, error)
}

// ConfigFunc adapts a function to ConfigSource
type ConfigFunc func(ctx context.Context) (Config, error)

func (f ConfigFunc) NightscoutConfig(ctx context.Context) (Config, error) {
	return f(ctx)
}

// StaticConfig is a ConfigSource that never changes
type StaticConfig Config

func (s StaticConfig) NightscoutConfig(context.Context) (Config, error) {
	return Config(s), nil
}

// Status is the subset of /api/v1/status.json the widget uses
type Status struct {
	Name       string                   `json:"name"`
	Version    string                   `json:"version"`
	Units      string                   `json:"units"`
	Thresholds models.GlucoseThresholds `json:"thresholds"`
}

// Client handles communication with the Nightscout API
type Client struct {
	source     ConfigSource
	httpClient *http.Client
	logger     *slog.Logger
	decoder    Decoder
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		xhttp.WithTimeout(d)(cl.httpClient)
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithClock sets the clock used for samples whose timestamp cannot be read
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.decoder.Now = now
	}
}

// NewClient creates a new Nightscout client reading its settings from source
func NewClient(source ConfigSource, opts ...Option) *Client {
	c := &Client{
		source:     source,
		httpClient: xhttp.NewHTTPClient(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// baseURL validates the configured URL and returns it without a trailing slash
func baseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNotConfigured
	}
	trimmed := strings.TrimRight(raw, "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &InvalidURLError{URL: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &InvalidURLError{URL: raw, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return "", &InvalidURLError{URL: raw, Err: fmt.Errorf("missing host")}
	}
	return trimmed, nil
}

// buildRequest creates a GET request for endpoint with the token appended as a query parameter
func (c *Client) buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	cfg, err := c.source.NightscoutConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading nightscout settings: %w", err)
	}

	base, err := baseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		params.Set("token", token)
	}

	fullURL := base + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &InvalidURLError{URL: cfg.BaseURL, Err: err}
	}
	xhttp.SetRequestHeaderAcceptJSON(req)

	return req, nil
}

// doRequest executes an HTTP request and returns the response body. Anything but 200 is a ServerError.
func (c *Client) doRequest(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.DebugContext(req.Context(), "nightscout request",
		slog.String("endpoint", endpoint),
		xslog.HTTPStatus(resp.StatusCode),
		xslog.Duration(time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := c.buildRequest(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return c.doRequest(req, endpoint)
}

// FetchEntries retrieves the most recent count entries, newest first
func (c *Client) FetchEntries(ctx context.Context, count int) ([]models.GlucoseSample, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	body, err := c.get(ctx, EndpointEntries, params)
	if err != nil {
		return nil, err
	}

	samples, err := c.decoder.Entries(body)
	if err != nil {
		return nil, &DecodeError{Endpoint: EndpointEntries, Err: err}
	}

	for _, s := range samples {
		if s.Defaulted != 0 {
			c.logger.WarnContext(ctx, "entry decoded with defaults",
				xslog.SampleID(s.ID),
				slog.Bool("defaulted_time", s.Defaulted.Has(models.DefaultedTime)),
				slog.Bool("defaulted_value", s.Defaulted.Has(models.DefaultedValue)),
			)
		}
	}

	return samples, nil
}

// FetchProperties retrieves the loop and pump display strings. Missing paths stay empty.
func (c *Client) FetchProperties(ctx context.Context) (models.LoopProperties, error) {
	body, err := c.get(ctx, EndpointProperties, nil)
	if err != nil {
		return models.LoopProperties{}, err
	}

	doc, err := decodeDocument(body)
	if err != nil {
		return models.LoopProperties{}, &DecodeError{Endpoint: EndpointProperties, Err: err}
	}

	return models.LoopProperties{
		IOB:           lookupString(doc, "iob", "display"),
		COB:           lookupString(doc, "cob", "display"),
		PumpReservoir: lookupString(doc, "pump", "data", "reservoir", "display"),
		PumpBattery:   lookupString(doc, "pump", "data", "battery", "display"),
	}, nil
}

// FetchStatus retrieves the server status. Thresholds the server does not report keep their defaults.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	body, err := c.get(ctx, EndpointStatus, nil)
	if err != nil {
		return Status{}, err
	}

	doc, err := decodeDocument(body)
	if err != nil {
		return Status{}, &DecodeError{Endpoint: EndpointStatus, Err: err}
	}

	thresholds := models.DefaultThresholds()
	if low, ok := lookupNumber(doc, "settings", "thresholds", "bgLow"); ok {
		thresholds.LowMgDl = low
	}
	if high, ok := lookupNumber(doc, "settings", "thresholds", "bgHigh"); ok {
		thresholds.HighMgDl = high
	}

	return Status{
		Name:       lookupString(doc, "name"),
		Version:    lookupString(doc, "version"),
		Units:      lookupString(doc, "settings", "units"),
		Thresholds: thresholds.Normalize(),
	}, nil
}

// FetchThresholds retrieves the server's low/high thresholds overlaid on the defaults
func (c *Client) FetchThresholds(ctx context.Context) (models.GlucoseThresholds, error) {
	status, err := c.FetchStatus(ctx)
	if err != nil {
		return models.GlucoseThresholds{}, err
	}
	return status.Thresholds, nil
}

// TestConnection tests if the connection to Nightscout works by fetching a single entry
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, EndpointEntries, url.Values{"count": []string{"1"}})
	return err
}

// decodeDocument parses body as JSON. Anything other than an object yields an empty document.
func decodeDocument(body []byte) (map[string]any, error) {
	var v any
	if err := go_json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	doc, _ := v.(map[string]any)
	return doc, nil
}

func lookup(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(doc map[string]any, path ...string) string {
	v, _ := lookup(doc, path...)
	s, _ := v.(string)
	return s
}

func lookupNumber(doc map[string]any, path ...string) (float64, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
