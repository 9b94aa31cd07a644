// Package config provides configuration management for the roster verifier.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults live next to each setting as `default` struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO settings for roster snapshots
//   - Redis: optional shared lock backend
//   - Registry: federation site endpoints and request timeout
//   - Reconcile: retry budget, similarity threshold, roster cache
//   - Credentials: sealing key for registry credentials
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Reconcile.MaxAttempts)
package config
