package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	t.Parallel()

	ua := UserAgent()
	if !strings.HasPrefix(ua, "nightscout-widget/") {
		t.Errorf("UserAgent() = %q, want nightscout-widget/ prefix", ua)
	}
	if Get() == "" {
		t.Error("Get() returned empty version")
	}
}
