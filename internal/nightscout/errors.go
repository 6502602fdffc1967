package nightscout

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned before any network call when no base URL is set
var ErrNotConfigured = errors.New("no nightscout url configured")

// InvalidURLError reports a configured base URL that cannot be used
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid nightscout url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid nightscout url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a response with a status other than 200
type ServerError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error from %s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// DecodeError reports a response body that is not the expected JSON shape
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRemote reports whether err came from talking to the server (or failing to, for lack of configuration)
func IsRemote(err error) bool {
	var (
		invalid   *InvalidURLError
		transport *TransportError
		server    *ServerError
		decode    *DecodeError
	)
	return errors.Is(err, ErrNotConfigured) ||
		errors.As(err, &invalid) ||
		errors.As(err, &transport) ||
		errors.As(err, &server) ||
		errors.As(err, &decode)
}

// Describe returns a short message suitable for showing on the widget
func Describe(err error) string {
	var (
		invalid   *InvalidURLError
		transport *TransportError
		server    *ServerError
		decode    *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "No Nightscout URL configured"
	case errors.As(err, &invalid):
		return "Invalid Nightscout URL"
	case errors.As(err, &server):
		return fmt.Sprintf("Server error (HTTP %d)", server.StatusCode)
	case errors.As(err, &transport):
		return "Cannot reach Nightscout server"
	case errors.As(err, &decode):
		return "Unexpected response from server"
	default:
		return "Error: " + err.Error()
	}
}
