package models

import "testing"

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.Units != UnitMgDl {
		t.Errorf("Default unit = %s, want mgdl", settings.Units)
	}
	if settings.ShowLoopData {
		t.Error("Loop data should be off by default")
	}
}

func TestSettings_IsConfigured(t *testing.T) {
	settings := DefaultSettings()

	if settings.IsConfigured() {
		t.Error("Empty settings should not be configured")
	}

	settings.NightscoutURL = "   "
	if settings.IsConfigured() {
		t.Error("Whitespace URL should not count as configured")
	}

	settings.NightscoutURL = "https://test.example.com"
	if !settings.IsConfigured() {
		t.Error("Settings with URL should be configured")
	}
}
