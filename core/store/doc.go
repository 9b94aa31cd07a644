// Package store persists tournaments, applications, verification results and
// administrator settings through gorm.
//
// Results are append-only: saving a new batch marks the previous current result of
// each affected application as history inside the same transaction that inserts the
// new rows and moves application statuses, so readers never observe a partial batch.
package store
