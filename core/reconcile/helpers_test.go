package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"roster-verifier/core/credentials"
	"roster-verifier/core/database"
	"roster-verifier/core/lock"
	"roster-verifier/core/metrics"
	"roster-verifier/core/registry"
	"roster-verifier/core/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// stubRegistry answers attempt n with responses[n-1]; the last response repeats.
type stubRegistry struct {
	mu        sync.Mutex
	responses []stubResponse
	attempts  int
	closed    int
	block     chan struct{}
	entered   chan struct{}
	lastYear  int
}

type stubResponse struct {
	records []registry.Record
	openErr error
	err     error
}

func (r *stubRegistry) OpenSession(ctx context.Context, _ credentials.Credentials) (registry.Session, error) {
	r.mu.Lock()
	r.attempts++
	resp := r.responses[min(r.attempts, len(r.responses))-1]
	r.mu.Unlock()
	if resp.openErr != nil {
		return nil, resp.openErr
	}
	return &stubSession{r: r, resp: resp}, nil
}

func (r *stubRegistry) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

type stubSession struct {
	r    *stubRegistry
	resp stubResponse
}

func (s *stubSession) SearchTeam(ctx context.Context, _ string, year int) ([]registry.Record, error) {
	s.r.mu.Lock()
	s.r.lastYear = year
	s.r.mu.Unlock()
	if s.r.block != nil {
		if s.r.entered != nil {
			close(s.r.entered)
		}
		select {
		case <-s.r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.resp.records, s.resp.err
}

func (s *stubSession) Close() {
	s.r.mu.Lock()
	s.r.closed++
	s.r.mu.Unlock()
}

type stubCredentials struct {
	err    error
	issued [][]byte
}

func (c *stubCredentials) Decrypt(_ context.Context, _ uint) (credentials.Credentials, error) {
	if c.err != nil {
		return credentials.Credentials{}, c.err
	}
	pw := []byte("pw")
	c.issued = append(c.issued, pw)
	return credentials.Credentials{Email: "coach@example.com", Password: pw}, nil
}

type fixture struct {
	store    *store.Store
	registry *stubRegistry
	creds    *stubCredentials
	locker   *lock.MemoryLocker
	metrics  *metrics.Metrics
	tour     *store.Tournament
}

func newFixture(t *testing.T, responses ...stubResponse) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	tour := &store.Tournament{Name: "Spring Cup", Year: 2025, AcceptanceOpen: true, Active: true}
	require.NoError(t, st.Tournaments.Create(context.Background(), tour))

	if len(responses) == 0 {
		responses = []stubResponse{{}}
	}
	return &fixture{
		store:    st,
		registry: &stubRegistry{responses: responses},
		creds:    &stubCredentials{},
		locker:   lock.NewMemoryLocker(),
		metrics:  metrics.New(prometheus.NewRegistry()),
		tour:     tour,
	}
}

func (f *fixture) testConfig() Config {
	return Config{
		MaxAttempts:         3,
		InitialBackoff:      time.Millisecond,
		MaxBackoff:          2 * time.Millisecond,
		SimilarityThreshold: 0.8,
		MaxCandidates:       5,
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Tournaments:  f.store.Tournaments,
		Applications: f.store.Applications,
		Results:      f.store.Results,
		Credentials:  f.creds,
		Registry:     f.registry,
		Locker:       f.locker,
		Metrics:      f.metrics,
		Clock:        func() time.Time { return fixedNow },
	}
}

func (f *fixture) engine(mutate ...func(*Config, *Deps)) *Engine {
	cfg, deps := f.testConfig(), f.deps()
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	return NewEngine(cfg, deps)
}

func (f *fixture) addApp(t *testing.T, app store.Application) *store.Application {
	t.Helper()
	if app.TournamentID == 0 {
		app.TournamentID = f.tour.ID
	}
	if app.ApplicantType == "" {
		app.ApplicantType = store.ApplicantPlayer
	}
	require.NoError(t, f.store.Applications.Create(context.Background(), &app))
	return &app
}

func transient() error {
	return registry.NewError(registry.CategoryTransient, "search", "status 503", nil)
}
