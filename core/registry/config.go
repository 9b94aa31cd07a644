package registry

import "time"

// Config holds the settings of the federation registry client.
type Config struct {
	// BaseURL is the registry site root.
	BaseURL string `mapstructure:"base_url" default:"https://team-jba.jp"`

	// OrganizationID is the organization whose team search is used.
	OrganizationID string `mapstructure:"organization_id" default:"15250600"`

	// MenLabel is the gender label of the teams that are searched.
	MenLabel string `mapstructure:"men_label" default:"男子"`

	// LogoutMarker appears on every page of a logged-in session.
	LogoutMarker string `mapstructure:"logout_marker" default:"ログアウト"`

	// RequestTimeout bounds every single HTTP call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"15s"`

	UserAgent string `mapstructure:"user_agent" default:"roster-verifier/1.0"`
}
