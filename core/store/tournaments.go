package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Tournaments reads and administers tournaments.
type Tournaments struct {
	db *gorm.DB
}

// Get returns the tournament with the given id or ErrNotFound.
func (r *Tournaments) Get(ctx context.Context, id uint) (*Tournament, error) {
	var t Tournament
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// GetActive returns the most recently created active tournament or ErrNotFound.
func (r *Tournaments) GetActive(ctx context.Context) (*Tournament, error) {
	var t Tournament
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id DESC").
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create inserts a tournament. When it is active, every other tournament is deactivated.
func (r *Tournaments) Create(ctx context.Context, t *Tournament) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.Active {
			if err := tx.Model(&Tournament{}).Where("active = ?", true).Update("active", false).Error; err != nil {
				return fmt.Errorf("failed to deactivate tournaments: %w", err)
			}
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}
		return nil
	})
}

// SetAcceptance opens or closes the acceptance window of a tournament.
func (r *Tournaments) SetAcceptance(ctx context.Context, id uint, open bool) error {
	res := r.db.WithContext(ctx).Model(&Tournament{}).Where("id = ?", id).Update("acceptance_open", open)
	if res.Error != nil {
		return fmt.Errorf("failed to update acceptance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
