package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrcode/nightscout-widget/internal/models"
)

func TestMaskToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"widget-1a2b3c", "widg*********"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()

			if got := maskToken(tt.token); got != tt.want {
				t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestReloadHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/reload" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"state":"data","unit":"mgdl"}`))
	}))
	defer srv.Close()

	state, err := reloadHTTP(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("reloadHTTP() error = %v", err)
	}
	if state != models.StateData {
		t.Errorf("state = %q, want %q", state, models.StateData)
	}
}

func TestReloadHTTP_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Cannot reach Nightscout server"}`))
	}))
	defer srv.Close()

	if _, err := reloadHTTP(t.Context(), srv.URL); err == nil {
		t.Error("reloadHTTP() expected error for 502")
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	if _, err := reloadHTTP(t.Context(), closed.URL); err == nil {
		t.Error("reloadHTTP() expected error for unreachable host")
	}
}

func TestParseThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		mmol    bool
		want    float64
		wantErr bool
	}{
		{"70", false, 70, false},
		{"3.9", true, 70, false},
		{"10", true, 180, false},
		{"low", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseThreshold(tt.in, tt.mmol)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseThreshold(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseThreshold(%q, %v) = %v, want %v", tt.in, tt.mmol, got, tt.want)
			}
		})
	}
}
