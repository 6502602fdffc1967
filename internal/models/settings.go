package models

import "strings"

// Keys under which settings live in the shared key-value store
const (
	KeyNightscoutURL = "nightscoutUrl"
	KeyAccessToken   = "accessToken"
	KeyUnits         = "bgUnits"
	KeyShowLoopData  = "showLoopData"
	KeyThresholds    = "bgThresholds"
)

// SettingKeys lists every key the application reads or writes
var SettingKeys = []string{
	KeyNightscoutURL,
	KeyAccessToken,
	KeyUnits,
	KeyShowLoopData,
	KeyThresholds,
}

// Settings contains the user-editable settings shared by the widget and the settings surface
type Settings struct {
	NightscoutURL string `json:"nightscoutUrl"`
	AccessToken   string `json:"accessToken"` // Optional, sent as ?token=
	Units         Unit   `json:"bgUnits"`
	ShowLoopData  bool   `json:"showLoopData"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() Settings {
	return Settings{
		Units: UnitMgDl,
	}
}

// IsConfigured returns true if minimum required settings are set
func (s Settings) IsConfigured() bool {
	return strings.TrimSpace(s.NightscoutURL) != ""
}
