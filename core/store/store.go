package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"roster-verifier/core/database"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store groups the repositories backed by a single database handle.
type Store struct {
	db *gorm.DB

	Tournaments  *Tournaments
	Applications *Applications
	Results      *Results
	Settings     *Settings
}

// New creates a Store on top of an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Tournaments:  &Tournaments{db: db},
		Applications: &Applications{db: db},
		Results:      &Results{db: db},
		Settings:     &Settings{db: db},
	}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SchemaReport lists the columns missing per table. An empty report means the schema is usable.
type SchemaReport map[string][]string

// VerifySchema compares the live database against the models and reports missing columns.
func (s *Store) VerifySchema(ctx context.Context) (SchemaReport, error) {
	report := SchemaReport{}
	db := s.db.WithContext(ctx)
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
		columns, err := database.GetTableColumns(db, stmt.Schema.Table)
		if err != nil {
			return nil, err
		}
		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col.Field] = struct{}{}
		}
		var missing []string
		for _, field := range stmt.Schema.DBNames {
			if _, ok := present[field]; !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			report[stmt.Schema.Table] = missing
		}
	}
	return report, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
