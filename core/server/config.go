package server

import "time"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// ReadTimeout bounds reading a request; reconcile calls answer after the job ends.
	ReadTimeout time.Duration `mapstructure:"read_timeout" default:"30s"`
	// WriteTimeout bounds writing a response and must cover a full reconciliation job.
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"5m"`
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
