package reconcile

import (
	"errors"
	"time"

	"roster-verifier/core/match"
)

var (
	// ErrBusy is returned when another job holds the same (tournament, team) key.
	ErrBusy = errors.New("reconciliation already running for this team")

	// ErrTournamentClosed is returned when the tournament no longer accepts applications.
	ErrTournamentClosed = errors.New("tournament acceptance is closed")

	// ErrInvalidRequest is returned for a request without tournament or team.
	ErrInvalidRequest = errors.New("tournament id and team are required")
)

// Config holds the tunables of the reconciliation engine.
type Config struct {
	// MaxAttempts is the total number of registry attempts per job, including the first.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration `mapstructure:"initial_backoff" default:"1s"`

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration `mapstructure:"max_backoff" default:"15s"`

	// SimilarityThreshold is the name similarity a near-miss candidate must exceed.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" default:"0.8"`

	// ReviewFloor is the similarity a candidate must exceed to be attached to a not-found outcome.
	ReviewFloor float64 `mapstructure:"review_floor" default:"0.5"`

	// MaxCandidates caps the candidates attached to an outcome.
	MaxCandidates int `mapstructure:"max_candidates" default:"5"`

	// CacheTTL keeps fetched rosters in memory. Zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl" default:"0s"`

	// LockTTL is the expiry of distributed locks; holders renew it while running.
	LockTTL time.Duration `mapstructure:"lock_ttl" default:"10m"`

	// JobRetention is how many finished jobs stay readable in the job table.
	JobRetention int `mapstructure:"job_retention" default:"500"`
}

// MatchOptions converts the configuration into matcher options.
func (c Config) MatchOptions() match.Options {
	opts := match.DefaultOptions()
	if c.SimilarityThreshold > 0 {
		opts.Threshold = c.SimilarityThreshold
	}
	if c.ReviewFloor > 0 {
		opts.ReviewFloor = c.ReviewFloor
	}
	if c.MaxCandidates > 0 {
		opts.MaxCandidates = c.MaxCandidates
	}
	return opts
}

// State is the lifecycle state of a job.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateMatching   State = "matching"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Final reports whether no further transition can happen.
func (s State) Final() bool {
	return s == StateDone || s == StateFailed
}

// FailureKind tells administrators whether a failed fetch needs a retry or maintenance.
type FailureKind string

const (
	// FailureUnreachable means the registry kept failing transiently; retry later.
	FailureUnreachable FailureKind = "unreachable"
	// FailureFormatChanged means the registry markup changed; the client needs maintenance.
	FailureFormatChanged FailureKind = "format_changed"
	// FailureAuth means the stored registry credentials were rejected.
	FailureAuth FailureKind = "auth_failed"
)

// Request identifies what to reconcile.
type Request struct {
	TournamentID uint   `json:"tournament_id"`
	Team         string `json:"team"`
}

// ApplicationResult is the outcome of one application within a job.
type ApplicationResult struct {
	ApplicationID uint       `json:"application_id"`
	Name          string     `json:"name"`
	Outcome       match.Kind `json:"outcome"`
	Confidence    float64    `json:"confidence"`
}

// Summary describes a job. The job table holds one per job id.
type Summary struct {
	JobID        string `json:"job_id"`
	TournamentID uint   `json:"tournament_id"`
	Team         string `json:"team"`
	Year         int    `json:"registry_year"`
	State        State  `json:"state"`

	// Attempts counts registry attempts; zero when the roster came from the cache.
	Attempts int `json:"attempts"`

	// CacheHit is true when the roster was served from the roster cache.
	CacheHit bool `json:"cache_hit"`

	// RosterSize is the number of registry rows the applications were matched against.
	RosterSize int `json:"roster_size"`

	// ArchiveKey is the object name of the archived roster, if archiving succeeded.
	ArchiveKey string `json:"archive_key,omitempty"`

	FailureKind FailureKind         `json:"failure_kind,omitempty"`
	Error       string              `json:"error,omitempty"`
	Counts      map[match.Kind]int  `json:"counts"`
	Results     []ApplicationResult `json:"results"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at,omitzero"`
}

func (s *Summary) clone() *Summary {
	c := *s
	c.Results = append([]ApplicationResult(nil), s.Results...)
	c.Counts = make(map[match.Kind]int, len(s.Counts))
	for k, v := range s.Counts {
		c.Counts[k] = v
	}
	return &c
}
