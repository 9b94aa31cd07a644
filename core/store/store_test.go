package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"roster-verifier/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestTournaments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Tournaments.GetActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &Tournament{Name: "Spring Cup", Year: 2025, AcceptanceOpen: true, Active: true}
	require.NoError(t, s.Tournaments.Create(ctx, first))
	second := &Tournament{Name: "Rookie League", Year: 2025, Active: true}
	require.NoError(t, s.Tournaments.Create(ctx, second))

	active, err := s.Tournaments.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	got, err := s.Tournaments.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.IsAcceptanceOpen())

	require.NoError(t, s.Tournaments.SetAcceptance(ctx, first.ID, false))
	got, err = s.Tournaments.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAcceptanceOpen())

	assert.ErrorIs(t, s.Tournaments.SetAcceptance(ctx, 999, true), ErrNotFound)
	_, err = s.Tournaments.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplications_ListPending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tour := &Tournament{Name: "Spring Cup", Year: 2025, AcceptanceOpen: true}
	require.NoError(t, s.Tournaments.Create(ctx, tour))
	other := &Tournament{Name: "Autumn Cup", Year: 2025, AcceptanceOpen: true}
	require.NoError(t, s.Tournaments.Create(ctx, other))

	apps := []*Application{
		{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "山田太郎", Team: "Ａ大学"},
		{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "鈴木一郎", Team: "A大学", Status: StatusUnverifiable},
		{TournamentID: tour.ID, ApplicantType: ApplicantStaff, Name: "佐藤花子", Team: "A大学", Status: StatusVerified},
		{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "高橋次郎", Team: "B大学"},
		{TournamentID: other.ID, ApplicantType: ApplicantPlayer, Name: "田中三郎", Team: "A大学"},
	}
	for _, app := range apps {
		require.NoError(t, s.Applications.Create(ctx, app))
	}
	assert.Equal(t, StatusPending, apps[0].Status)

	pending, err := s.Applications.ListPending(ctx, tour.ID, "A大学")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, apps[0].ID, pending[0].ID)
	assert.Equal(t, apps[1].ID, pending[1].ID)

	require.NoError(t, s.Applications.ResetStatus(ctx, apps[2].ID))
	pending, err = s.Applications.ListPending(ctx, tour.ID, "A大学")
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	assert.ErrorIs(t, s.Applications.ResetStatus(ctx, 999), ErrNotFound)
}

func TestResults_SaveBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tour := &Tournament{Name: "Spring Cup", Year: 2025, AcceptanceOpen: true}
	require.NoError(t, s.Tournaments.Create(ctx, tour))
	app1 := &Application{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "山田太郎", Team: "A大学"}
	app2 := &Application{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "鈴木一郎", Team: "A大学"}
	require.NoError(t, s.Applications.Create(ctx, app1))
	require.NoError(t, s.Applications.Create(ctx, app2))

	_, err := s.Results.Current(ctx, app1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	err = s.Results.SaveBatch(ctx, []ResultUpdate{
		{Result: VerificationResult{ApplicationID: app1.ID, Outcome: "not-found", JobID: "job-1", CheckedAt: now}, Status: StatusUnverifiable},
		{Result: VerificationResult{ApplicationID: app2.ID, Outcome: "not-found", JobID: "job-1", CheckedAt: now}, Status: StatusUnverifiable},
	})
	require.NoError(t, err)

	err = s.Results.SaveBatch(ctx, []ResultUpdate{
		{Result: VerificationResult{ApplicationID: app1.ID, Outcome: "matched", Confidence: 1, JobID: "job-2", CheckedAt: now.Add(time.Hour)}, Status: StatusVerified},
	})
	require.NoError(t, err)

	current, err := s.Results.Current(ctx, app1.ID)
	require.NoError(t, err)
	assert.Equal(t, "matched", current.Outcome)
	assert.Equal(t, "job-2", current.JobID)
	assert.True(t, current.IsCurrent)

	history, err := s.Results.History(ctx, app1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsCurrent)
	assert.False(t, history[1].IsCurrent)
	assert.Equal(t, "job-1", history[1].JobID)

	// app2 was not part of the second job and keeps its result.
	current, err = s.Results.Current(ctx, app2.ID)
	require.NoError(t, err)
	assert.Equal(t, "job-1", current.JobID)

	got, err := s.Applications.Get(ctx, app1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)

	assert.NoError(t, s.Results.SaveBatch(ctx, nil))
}

func TestResults_SaveBatch_RollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `applications` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `verification_results` SET `is_current`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `verification_results`")).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `applications` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `verification_results` SET `is_current`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `verification_results`")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Results.SaveBatch(context.Background(), []ResultUpdate{
		{Result: VerificationResult{ApplicationID: 1, Outcome: "matched", Confidence: 1, CheckedAt: time.Now()}, Status: StatusVerified},
		{Result: VerificationResult{ApplicationID: 2, Outcome: "not-found", CheckedAt: time.Now()}, Status: StatusUnverifiable},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResults_SaveBatch_KeepsAdministratorStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tour := &Tournament{Name: "Spring Cup", Year: 2025, AcceptanceOpen: true}
	require.NoError(t, s.Tournaments.Create(ctx, tour))
	app := &Application{TournamentID: tour.ID, ApplicantType: ApplicantPlayer, Name: "山田太郎", Team: "A大学"}
	require.NoError(t, s.Applications.Create(ctx, app))

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Results.SaveBatch(ctx, []ResultUpdate{
		{Result: VerificationResult{ApplicationID: app.ID, Outcome: "not-found", JobID: "job-1", CheckedAt: now}, Status: StatusUnverifiable},
	}))

	require.NoError(t, s.DB().Model(&Application{}).Where("id = ?", app.ID).Update("status", StatusRejected).Error)

	require.NoError(t, s.Results.SaveBatch(ctx, []ResultUpdate{
		{Result: VerificationResult{ApplicationID: app.ID, Outcome: "matched", Confidence: 1, JobID: "job-2", CheckedAt: now.Add(time.Hour)}, Status: StatusVerified},
	}))

	got, err := s.Applications.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)

	current, err := s.Results.Current(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "job-1", current.JobID, "the result the administrator acted on stays current")

	history, err := s.Results.History(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "job-2", history[0].JobID)
	assert.False(t, history[0].IsCurrent)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Settings.Get(ctx, "registry.email")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Settings.Put(ctx, "registry.email", "first"))
	require.NoError(t, s.Settings.Put(ctx, "registry.email", "second"))

	v, err := s.Settings.Get(ctx, "registry.email")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestSettings_PutAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Settings.Put(ctx, "registry.email", "old"))
	require.NoError(t, s.Settings.PutAll(ctx, map[string]string{
		"registry.email":    "new",
		"registry.password": "sealed",
	}))

	v, err := s.Settings.Get(ctx, "registry.email")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	v, err = s.Settings.Get(ctx, "registry.password")
	require.NoError(t, err)
	assert.Equal(t, "sealed", v)
}

func TestSettings_PutAll_RollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `admin_settings`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `admin_settings`")).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := s.Settings.PutAll(context.Background(), map[string]string{
		"registry.email":    "sealed-email",
		"registry.password": "sealed-password",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchema(t *testing.T) {
	ctx := context.Background()

	t.Run("Migrated", func(t *testing.T) {
		s := newTestStore(t)
		report, err := s.VerifySchema(ctx)
		require.NoError(t, err)
		assert.Empty(t, report)
	})

	t.Run("Empty Database", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
		require.NoError(t, err)
		report, err := New(db).VerifySchema(ctx)
		require.NoError(t, err)
		assert.Contains(t, report, "verification_results")
		assert.Contains(t, report["verification_results"], "is_current")
	})
}
