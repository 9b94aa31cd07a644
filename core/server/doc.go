// Package server holds the HTTP server configuration.
//
// The start command owns the server lifecycle; this package only defines the settings it
// reads: the listen port, the API key guarding every route, and the read/write timeouts.
// The write timeout must cover a full reconciliation job because the reconcile endpoint
// answers once the job has finished.
package server
