package store

import (
	"context"
	"fmt"

	"roster-verifier/core/normalize"

	"gorm.io/gorm"
)

// Applications reads and administers applications.
type Applications struct {
	db *gorm.DB
}

// Get returns the application with the given id or ErrNotFound.
func (r *Applications) Get(ctx context.Context, id uint) (*Application, error) {
	var app Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

// ListPending returns the applications of a team that still need reconciliation,
// i.e. those pending or previously unverifiable. Team names are compared in
// normalized form so spelling variants of the same team are grouped.
func (r *Applications) ListPending(ctx context.Context, tournamentID uint, team string) ([]Application, error) {
	var apps []Application
	err := r.db.WithContext(ctx).
		Where("tournament_id = ? AND status IN ?", tournamentID, []ApplicationStatus{StatusPending, StatusUnverifiable}).
		Order("id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending applications: %w", err)
	}

	want := normalize.String(team)
	filtered := apps[:0]
	for _, app := range apps {
		if normalize.String(app.Team) == want {
			filtered = append(filtered, app)
		}
	}
	return filtered, nil
}

// Create inserts an application. A blank status defaults to pending.
func (r *Applications) Create(ctx context.Context, app *Application) error {
	if app.Status == "" {
		app.Status = StatusPending
	}
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ResetStatus returns an application to pending so that the next job re-verifies it.
// Existing results are kept as history.
func (r *Applications) ResetStatus(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&Application{}).Where("id = ?", id).Update("status", StatusPending)
	if res.Error != nil {
		return fmt.Errorf("failed to reset application %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
