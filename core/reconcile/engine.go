package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"roster-verifier/core/lock"
	"roster-verifier/core/match"
	"roster-verifier/core/metrics"
	"roster-verifier/core/normalize"
	"roster-verifier/core/registry"
	"roster-verifier/core/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("roster-verifier/core/reconcile")

// Deps are the collaborators of an Engine. Archive, Metrics, Logger, Clock and
// OnTransition are optional.
type Deps struct {
	Tournaments  Tournaments
	Applications Applications
	Results      Results
	Credentials  Credentials
	Registry     registry.Client
	Locker       lock.Locker
	Archive      Archive
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Clock        func() time.Time

	// OnTransition is called synchronously on every job state change.
	OnTransition func(jobID string, state State)
}

// Engine runs reconciliation jobs: fetch a team's registry roster, match every pending
// application of that team against it and persist the outcomes atomically.
// At most one job runs per (tournament, team); a second request fails with ErrBusy.
type Engine struct {
	cfg   Config
	deps  Deps
	log   *zap.Logger
	now   func() time.Time
	cache *rosterCacheStore
	jobs  *jobTable

	bg       context.Context
	cancelBg context.CancelFunc
	wg       sync.WaitGroup
}

// NewEngine creates an Engine.
func NewEngine(cfg Config, deps Deps) *Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:      cfg,
		deps:     deps,
		log:      log,
		now:      now,
		cache:    newRosterCacheStore(cfg.CacheTTL, now),
		jobs:     newJobTable(cfg.JobRetention),
		bg:       bg,
		cancelBg: cancel,
	}
}

// run is a job that passed its preconditions and holds the team lock.
type run struct {
	id         string
	tournament *store.Tournament
	team       string
	year       int
	apps       []store.Application
	unlock     func()
}

// Reconcile runs a job to completion and returns its summary.
// Precondition failures (unknown tournament, closed acceptance, busy team, missing
// credentials) are returned as errors. Registry failures are not: they are recorded
// as registry-unavailable outcomes and reported in the summary.
func (e *Engine) Reconcile(ctx context.Context, req Request) (*Summary, error) {
	r, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, r)
}

// Start checks the preconditions and runs the job in the background.
// The returned job id can be polled with Job.
func (e *Engine) Start(ctx context.Context, req Request) (string, error) {
	r, err := e.prepare(ctx, req)
	if err != nil {
		return "", err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.execute(e.bg, r); err != nil {
			e.log.Warn("Background reconciliation ended with error", zap.String("job_id", r.id), zap.Error(err))
		}
	}()
	return r.id, nil
}

// Shutdown cancels background jobs and waits for them until ctx expires.
// Jobs already persisting still commit.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.cancelBg()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Job returns a snapshot of a job.
func (e *Engine) Job(id string) (*Summary, bool) {
	return e.jobs.get(id)
}

// Jobs returns snapshots of every retained job, newest first.
func (e *Engine) Jobs() []*Summary {
	return e.jobs.list()
}

// InvalidateRoster drops a cached roster so the next job fetches it again.
func (e *Engine) InvalidateRoster(tournamentID uint, team string, year int) {
	e.cache.invalidate(rosterCacheKey(tournamentID, team, year))
}

func lockKey(tournamentID uint, team string) string {
	return fmt.Sprintf("%d|%s", tournamentID, normalize.String(team))
}

func (e *Engine) prepare(ctx context.Context, req Request) (*run, error) {
	team := strings.TrimSpace(req.Team)
	if req.TournamentID == 0 || team == "" {
		return nil, ErrInvalidRequest
	}

	t, err := e.deps.Tournaments.Get(ctx, req.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("tournament %d: %w", req.TournamentID, err)
	}
	if !t.IsAcceptanceOpen() {
		return nil, ErrTournamentClosed
	}

	unlock, err := e.deps.Locker.TryLock(ctx, lockKey(t.ID, team))
	if errors.Is(err, lock.ErrLocked) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}

	apps, err := e.deps.Applications.ListPending(ctx, t.ID, team)
	if err != nil {
		unlock()
		return nil, err
	}

	year := e.now().Year()
	if t.RegistryYear != nil {
		year = *t.RegistryYear
	}

	r := &run{id: uuid.NewString(), tournament: t, team: team, year: year, apps: apps, unlock: unlock}
	e.jobs.add(&Summary{
		JobID:        r.id,
		TournamentID: t.ID,
		Team:         team,
		Year:         year,
		State:        StateIdle,
		Counts:       map[match.Kind]int{},
		StartedAt:    e.now(),
	})
	e.deps.Metrics.JobStarted()
	return r, nil
}

func (e *Engine) execute(ctx context.Context, r *run) (*Summary, error) {
	defer r.unlock()
	defer e.deps.Metrics.JobFinished()

	log := e.log.With(
		zap.String("job_id", r.id),
		zap.Uint("tournament_id", r.tournament.ID),
		zap.String("team", r.team),
		zap.Int("registry_year", r.year),
	)
	ctx, span := tracer.Start(ctx, "reconcile.job", trace.WithAttributes(
		attribute.String("job.id", r.id),
		attribute.Int64("tournament.id", int64(r.tournament.ID)),
		attribute.String("team", r.team),
		attribute.Int("applications", len(r.apps)),
	))
	defer span.End()

	if len(r.apps) == 0 {
		log.Info("No pending applications")
		return e.finish(r, StateDone, "", nil), nil
	}

	e.transition(r, StateFetching)
	log.Info("Fetching registry roster", zap.Int("applications", len(r.apps)))
	records, err := e.fetch(ctx, r, log)
	if err != nil {
		return e.fetchFailed(ctx, r, log, span, err)
	}

	if err := ctx.Err(); err != nil {
		return e.cancelled(r, log, span, err)
	}
	e.transition(r, StateMatching)
	updates, results := e.match(ctx, r, records)

	if err := ctx.Err(); err != nil {
		return e.cancelled(r, log, span, err)
	}
	e.transition(r, StatePersisting)
	if err := e.persist(ctx, updates); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		log.Error("Failed to persist results", zap.Error(err))
		e.finish(r, StateFailed, "", err)
		return nil, err
	}

	for _, res := range results {
		e.deps.Metrics.IncrementOutcome(string(res.Outcome))
	}
	summary := e.finish(r, StateDone, "", nil, results...)
	log.Info("Reconciliation finished",
		zap.Int("matched", summary.Counts[match.Matched]),
		zap.Int("ambiguous", summary.Counts[match.Ambiguous]),
		zap.Int("not_found", summary.Counts[match.NotFound]))
	return summary, nil
}

// fetch returns the team roster, going through the roster cache.
func (e *Engine) fetch(ctx context.Context, r *run, log *zap.Logger) ([]registry.Record, error) {
	ctx, span := tracer.Start(ctx, "reconcile.fetch")
	defer span.End()
	start := time.Now()
	defer e.deps.Metrics.ObserveFetch(start)

	key := rosterCacheKey(r.tournament.ID, r.team, r.year)
	records, hit, err := e.cache.getOrFetch(ctx, key, func(ctx context.Context) ([]registry.Record, error) {
		return e.fetchRemote(ctx, r, log)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("cache.hit", hit), attribute.Int("roster.size", len(records)))
	e.jobs.update(r.id, func(s *Summary) {
		s.CacheHit = hit
		s.RosterSize = len(records)
	})
	if !hit {
		e.archive(ctx, r, records, log)
	}
	return records, nil
}

func (e *Engine) fetchRemote(ctx context.Context, r *run, log *zap.Logger) ([]registry.Record, error) {
	creds, err := e.deps.Credentials.Decrypt(ctx, r.tournament.ID)
	if err != nil {
		return nil, err
	}
	defer creds.Wipe()

	var records []registry.Record
	err = retryFetch(ctx, e.cfg, func(attempt int) error {
		e.jobs.update(r.id, func(s *Summary) { s.Attempts = attempt })

		session, err := e.deps.Registry.OpenSession(ctx, creds)
		if err == nil {
			defer session.Close()
			records, err = session.SearchTeam(ctx, r.team, r.year)
		}

		switch category := registry.CategoryOf(err); {
		case err == nil:
			e.deps.Metrics.IncrementFetchAttempt("ok")
			return nil
		case category == registry.CategoryNotFound:
			e.deps.Metrics.IncrementFetchAttempt(string(category))
			log.Info("Team not found in registry")
			records = nil
			return nil
		case category != "":
			e.deps.Metrics.IncrementFetchAttempt(string(category))
		default:
			e.deps.Metrics.IncrementFetchAttempt("error")
		}
		return err
	}, func(err error, wait time.Duration) {
		log.Warn("Registry fetch failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

type rosterSnapshot struct {
	JobID        string            `json:"job_id"`
	TournamentID uint              `json:"tournament_id"`
	Team         string            `json:"team"`
	Year         int               `json:"registry_year"`
	FetchedAt    time.Time         `json:"fetched_at"`
	Records      []registry.Record `json:"records"`
}

// archive stores the roster best-effort; failures are logged and otherwise ignored.
func (e *Engine) archive(ctx context.Context, r *run, records []registry.Record, log *zap.Logger) {
	if e.deps.Archive == nil {
		return
	}
	key, err := e.deps.Archive.Put(ctx, r.tournament.ID, r.team, r.id, rosterSnapshot{
		JobID:        r.id,
		TournamentID: r.tournament.ID,
		Team:         r.team,
		Year:         r.year,
		FetchedAt:    e.now(),
		Records:      records,
	})
	if err != nil {
		log.Warn("Failed to archive roster", zap.Error(err))
		return
	}
	e.jobs.update(r.id, func(s *Summary) { s.ArchiveKey = key })
}

func (e *Engine) match(ctx context.Context, r *run, records []registry.Record) ([]store.ResultUpdate, []ApplicationResult) {
	_, span := tracer.Start(ctx, "reconcile.match")
	defer span.End()

	opts := e.cfg.MatchOptions()
	checkedAt := e.now()
	updates := make([]store.ResultUpdate, 0, len(r.apps))
	results := make([]ApplicationResult, 0, len(r.apps))
	for _, app := range r.apps {
		out := match.Match(match.Applicant{
			Name:      app.Name,
			Number:    app.Number,
			MemberID:  app.MemberID,
			BirthDate: app.BirthDate,
		}, records, opts)

		updates = append(updates, store.ResultUpdate{
			Result: store.VerificationResult{
				ApplicationID: app.ID,
				Outcome:       string(out.Kind),
				Confidence:    out.Confidence,
				MatchedRecord: encodeJSON(out.Record),
				Candidates:    encodeJSON(out.Candidates),
				RegistryYear:  r.year,
				JobID:         r.id,
				CheckedAt:     checkedAt,
			},
			Status: statusFor(out.Kind),
		})
		results = append(results, ApplicationResult{
			ApplicationID: app.ID,
			Name:          app.Name,
			Outcome:       out.Kind,
			Confidence:    out.Confidence,
		})
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return updates, results
}

// persist commits on a context detached from the caller so that a cancellation
// arriving after persisting started cannot leave a partial batch.
func (e *Engine) persist(ctx context.Context, updates []store.ResultUpdate) error {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "reconcile.persist")
	defer span.End()
	return e.deps.Results.SaveBatch(ctx, updates)
}

// fetchFailed records registry-unavailable outcomes for every application of the job.
func (e *Engine) fetchFailed(ctx context.Context, r *run, log *zap.Logger, span trace.Span, err error) (*Summary, error) {
	span.RecordError(err)
	if ctx.Err() != nil {
		return e.cancelled(r, log, span, ctx.Err())
	}

	var regErr *registry.Error
	if !errors.As(err, &regErr) {
		// Not a registry outcome: missing credentials or a local failure.
		span.SetStatus(codes.Error, "fetch failed")
		log.Error("Reconciliation aborted", zap.Error(err))
		e.finish(r, StateFailed, "", err)
		return nil, err
	}

	kind := failureKindOf(err)
	log.Error("Registry unavailable", zap.String("failure_kind", string(kind)), zap.Error(err))
	span.SetStatus(codes.Error, string(kind))

	checkedAt := e.now()
	updates := make([]store.ResultUpdate, 0, len(r.apps))
	results := make([]ApplicationResult, 0, len(r.apps))
	for _, app := range r.apps {
		updates = append(updates, store.ResultUpdate{
			Result: store.VerificationResult{
				ApplicationID: app.ID,
				Outcome:       string(match.RegistryUnavailable),
				FailureKind:   string(kind),
				RegistryYear:  r.year,
				JobID:         r.id,
				CheckedAt:     checkedAt,
			},
			Status: store.StatusUnverifiable,
		})
		results = append(results, ApplicationResult{
			ApplicationID: app.ID,
			Name:          app.Name,
			Outcome:       match.RegistryUnavailable,
		})
	}

	if perr := e.persist(ctx, updates); perr != nil {
		log.Error("Failed to persist registry-unavailable results", zap.Error(perr))
		e.finish(r, StateFailed, kind, perr)
		return nil, perr
	}
	for range results {
		e.deps.Metrics.IncrementOutcome(string(match.RegistryUnavailable))
	}
	return e.finish(r, StateFailed, kind, err, results...), nil
}

func (e *Engine) cancelled(r *run, log *zap.Logger, span trace.Span, err error) (*Summary, error) {
	span.SetStatus(codes.Error, "cancelled")
	log.Info("Reconciliation cancelled before persisting", zap.Error(err))
	e.finish(r, StateFailed, "", err)
	return nil, err
}

func (e *Engine) transition(r *run, state State) {
	e.jobs.update(r.id, func(s *Summary) { s.State = state })
	e.log.Debug("Job state changed", zap.String("job_id", r.id), zap.String("state", string(state)))
	if e.deps.OnTransition != nil {
		e.deps.OnTransition(r.id, state)
	}
}

func (e *Engine) finish(r *run, state State, kind FailureKind, err error, results ...ApplicationResult) *Summary {
	var out *Summary
	e.jobs.update(r.id, func(s *Summary) {
		s.State = state
		s.FailureKind = kind
		if err != nil {
			s.Error = err.Error()
		}
		s.Results = results
		for _, res := range results {
			s.Counts[res.Outcome]++
		}
		s.FinishedAt = e.now()
		out = s.clone()
	})
	e.deps.Metrics.IncrementJob(string(state))
	if e.deps.OnTransition != nil {
		e.deps.OnTransition(r.id, state)
	}
	return out
}

func failureKindOf(err error) FailureKind {
	switch registry.CategoryOf(err) {
	case registry.CategoryAuth:
		return FailureAuth
	case registry.CategoryParse:
		return FailureFormatChanged
	default:
		return FailureUnreachable
	}
}

func statusFor(kind match.Kind) store.ApplicationStatus {
	if kind == match.Matched {
		return store.StatusVerified
	}
	return store.StatusUnverifiable
}

func encodeJSON(v any) string {
	switch x := v.(type) {
	case *registry.Record:
		if x == nil {
			return ""
		}
	case []match.Candidate:
		if len(x) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
