package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Settings is the administrator key/value table.
type Settings struct {
	db *gorm.DB
}

// Get returns the value stored under key or ErrNotFound.
func (r *Settings) Get(ctx context.Context, key string) (string, error) {
	var s AdminSetting
	if err := r.db.WithContext(ctx).Where(&AdminSetting{Key: key}).First(&s).Error; err != nil {
		return "", notFound(err)
	}
	return s.Value, nil
}

// Put inserts or replaces the value stored under key.
func (r *Settings) Put(ctx context.Context, key, value string) error {
	return put(r.db.WithContext(ctx), key, value)
}

// PutAll inserts or replaces every value in one transaction.
func (r *Settings) PutAll(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := put(tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(db *gorm.DB, key, value string) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&AdminSetting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}
