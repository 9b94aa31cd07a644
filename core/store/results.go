package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ResultUpdate pairs a new current result with the status its application moves to.
type ResultUpdate struct {
	Result VerificationResult
	Status ApplicationStatus
}

// Results reads and writes verification results.
type Results struct {
	db *gorm.DB
}

// Current returns the current result of an application or ErrNotFound.
func (r *Results) Current(ctx context.Context, applicationID uint) (*VerificationResult, error) {
	var res VerificationResult
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND is_current = ?", applicationID, true).
		Order("id DESC").
		First(&res).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// History returns every result of an application, newest first.
func (r *Results) History(ctx context.Context, applicationID uint) ([]VerificationResult, error) {
	var results []VerificationResult
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return results, nil
}

// reconcilable lists the statuses a job may move an application out of.
// Any other status was set by an administrator after the job read the application.
var reconcilable = []ApplicationStatus{StatusPending, StatusUnverifiable}

// SaveBatch stores the results of one job in a single transaction.
// For every application still pending or unverifiable, the previous current result
// becomes history, the new result becomes current and the status is updated.
// An application whose status changed meanwhile keeps it; its result is stored
// as history only. Either all of it is committed or none of it is.
func (r *Results) SaveBatch(ctx context.Context, updates []ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range updates {
			res := updates[i].Result
			res.ID = 0

			moved := tx.Model(&Application{}).
				Where("id = ? AND status IN ?", res.ApplicationID, reconcilable).
				Update("status", updates[i].Status)
			if moved.Error != nil {
				return fmt.Errorf("failed to update application %d: %w", res.ApplicationID, moved.Error)
			}

			res.IsCurrent = moved.RowsAffected > 0
			if res.IsCurrent {
				err := tx.Model(&VerificationResult{}).
					Where("application_id = ? AND is_current = ?", res.ApplicationID, true).
					Update("is_current", false).Error
				if err != nil {
					return fmt.Errorf("failed to retire current result of application %d: %w", res.ApplicationID, err)
				}
			}

			if err := tx.Create(&res).Error; err != nil {
				return fmt.Errorf("failed to insert result for application %d: %w", res.ApplicationID, err)
			}
		}
		return nil
	})
}
