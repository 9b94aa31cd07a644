package verification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"roster-verifier/core/reconcile"
	"roster-verifier/core/store"

	"go.uber.org/zap"
)

// ErrJobNotFound is returned for job ids the engine does not (or no longer) retain.
var ErrJobNotFound = errors.New("job not found")

// Runner runs reconciliation jobs. *reconcile.Engine implements it.
type Runner interface {
	Reconcile(ctx context.Context, req reconcile.Request) (*reconcile.Summary, error)
	Start(ctx context.Context, req reconcile.Request) (string, error)
	Job(id string) (*reconcile.Summary, bool)
}

// Service exposes reconciliation and stored results to the HTTP layer.
type Service struct {
	runner Runner
	store  *store.Store
	logger *zap.Logger
}

// NewService creates a new verification service.
func NewService(runner Runner, st *store.Store, logger *zap.Logger) *Service {
	return &Service{
		runner: runner,
		store:  st,
		logger: logger,
	}
}

// ResultView is a verification result with its JSON columns decoded.
type ResultView struct {
	ApplicationID uint                    `json:"application_id"`
	Status        store.ApplicationStatus `json:"status,omitempty"`
	Current       bool                    `json:"current"`
	Outcome       string                  `json:"outcome"`
	Confidence    float64                 `json:"confidence"`
	MatchedRecord json.RawMessage         `json:"matched_record,omitempty"`
	Candidates    json.RawMessage         `json:"candidates,omitempty"`
	FailureKind   string                  `json:"failure_kind,omitempty"`
	RegistryYear  int                     `json:"registry_year"`
	JobID         string                  `json:"job_id"`
	CheckedAt     time.Time               `json:"checked_at"`
}

func newResultView(r store.VerificationResult) ResultView {
	v := ResultView{
		ApplicationID: r.ApplicationID,
		Current:       r.IsCurrent,
		Outcome:       r.Outcome,
		Confidence:    r.Confidence,
		FailureKind:   r.FailureKind,
		RegistryYear:  r.RegistryYear,
		JobID:         r.JobID,
		CheckedAt:     r.CheckedAt,
	}
	if r.MatchedRecord != "" {
		v.MatchedRecord = json.RawMessage(r.MatchedRecord)
	}
	if r.Candidates != "" {
		v.Candidates = json.RawMessage(r.Candidates)
	}
	return v
}

// Reconcile runs a job for one team and waits for it.
func (s *Service) Reconcile(ctx context.Context, tournamentID uint, team string) (*reconcile.Summary, error) {
	return s.runner.Reconcile(ctx, reconcile.Request{TournamentID: tournamentID, Team: team})
}

// Start runs a job for one team in the background and returns its id.
func (s *Service) Start(ctx context.Context, tournamentID uint, team string) (string, error) {
	return s.runner.Start(ctx, reconcile.Request{TournamentID: tournamentID, Team: team})
}

// Job returns the state of a job.
func (s *Service) Job(id string) (*reconcile.Summary, error) {
	summary, ok := s.runner.Job(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	return summary, nil
}

// Result returns the current verification result of an application.
func (s *Service) Result(ctx context.Context, applicationID uint) (*ResultView, error) {
	app, err := s.store.Applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	res, err := s.store.Results.Current(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	v := newResultView(*res)
	v.Status = app.Status
	return &v, nil
}

// History returns every result of an application, newest first.
func (s *Service) History(ctx context.Context, applicationID uint) ([]ResultView, error) {
	if _, err := s.store.Applications.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	results, err := s.store.Results.History(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, newResultView(r))
	}
	return views, nil
}

// Reset returns an application to pending so that the next job re-verifies it.
func (s *Service) Reset(ctx context.Context, applicationID uint) error {
	if err := s.store.Applications.ResetStatus(ctx, applicationID); err != nil {
		return err
	}
	s.logger.Info("Application reset to pending", zap.Uint("application_id", applicationID))
	return nil
}

// ActiveTournament returns the tournament administrators are working on.
func (s *Service) ActiveTournament(ctx context.Context) (*store.Tournament, error) {
	return s.store.Tournaments.GetActive(ctx)
}
