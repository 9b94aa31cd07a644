package registry

import (
	"context"

	"roster-verifier/core/credentials"
)

// Record is one member row of the registry.
type Record struct {
	Team      string            `json:"team"`
	Name      string            `json:"name"`
	Year      int               `json:"year"`
	Role      string            `json:"role,omitempty"`
	MemberID  string            `json:"member_id,omitempty"`
	Number    string            `json:"number,omitempty"`
	BirthDate string            `json:"birth_date,omitempty"`
	Raw       map[string]string `json:"raw,omitempty"`
}

// Client opens authenticated registry sessions.
type Client interface {
	// OpenSession logs in. Failures are *Error with CategoryAuth, CategoryTransient or CategoryParse.
	OpenSession(ctx context.Context, creds credentials.Credentials) (Session, error)
}

// Session is a logged-in registry conversation. It is not shared between tournaments.
type Session interface {
	// SearchTeam returns every member row of the teams matching teamName for the given year.
	// When no team matches the error has CategoryNotFound.
	SearchTeam(ctx context.Context, teamName string, year int) ([]Record, error)

	// Close discards the session cookies.
	Close()
}
