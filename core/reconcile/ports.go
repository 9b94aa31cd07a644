package reconcile

import (
	"context"

	"roster-verifier/core/credentials"
	"roster-verifier/core/store"
)

// Tournaments reads tournaments.
type Tournaments interface {
	Get(ctx context.Context, id uint) (*store.Tournament, error)
}

// Applications lists the applications a job works on.
type Applications interface {
	ListPending(ctx context.Context, tournamentID uint, team string) ([]store.Application, error)
}

// Results persists the outcome of a job atomically.
type Results interface {
	SaveBatch(ctx context.Context, updates []store.ResultUpdate) error
}

// Credentials decrypts the registry login of a tournament.
type Credentials interface {
	Decrypt(ctx context.Context, tournamentID uint) (credentials.Credentials, error)
}

// Archive keeps a copy of every fetched roster.
type Archive interface {
	Put(ctx context.Context, tournamentID uint, team, jobID string, snapshot any) (string, error)
}
