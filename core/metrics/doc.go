// Package metrics defines the prometheus collectors of the reconciliation engine.
package metrics
