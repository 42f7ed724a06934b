package config

import (
	"net/url"
	"strconv"
)

const maskedValue = "xxxxx"

// Setting is a single configuration value prepared for display
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

// Settings returns the effective configuration in a stable order with
// credentials masked, for startup logs and the config check command
func (c *Config) Settings() []Setting {
	return []Setting{
		{Name: EnvMode, Value: string(c.Mode), Set: true},
		{Name: EnvPort, Value: strconv.Itoa(c.Port), Set: true},
		{Name: EnvFrontendURL, Value: c.FrontendURL, Set: true},
		{Name: EnvDatabaseURL, Value: MaskURL(c.DatabaseURL), Set: c.DatabaseURL != ""},
		{Name: EnvRedisURL, Value: MaskURL(c.RedisURL), Set: c.RedisURL != ""},
		{Name: EnvMetricsEnabled, Value: strconv.FormatBool(c.MetricsEnabled), Set: true},
	}
}

// MaskSensitiveSettings returns the settings as a flat map suitable for
// structured log fields
func MaskSensitiveSettings(c *Config) map[string]string {
	out := make(map[string]string)
	for _, s := range c.Settings() {
		if s.Set {
			out[s.Name] = s.Value
		}
	}
	return out
}

// MaskURL hides the password of a connection string. Values that do not
// parse as URLs are masked entirely.
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return maskedValue
	}
	return u.Redacted()
}
