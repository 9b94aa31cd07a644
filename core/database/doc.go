// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure either a single-file SQLite store
// (the default deployment) or a MySQL server based on the application's configuration.
//
// # Connect
//
// Connect establishes the connection and verifies it with a ping. SQLite connections are
// limited to one open connection so that writers are serialized and in-memory databases
// used by tests are shared across the pool.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table on either dialect. The store package uses it
// to verify that the verification tables carry the columns the engine writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "verification_results")
package database
