package cmd

import (
	"context"
	"errors"
	"fmt"

	"roster-verifier/core/config"
	"roster-verifier/core/credentials"
	"roster-verifier/core/database"
	"roster-verifier/core/lock"
	"roster-verifier/core/logger"
	"roster-verifier/core/metrics"
	"roster-verifier/core/reconcile"
	"roster-verifier/core/registry"
	"roster-verifier/core/storage"
	"roster-verifier/core/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// services holds the services shared by the commands.
type services struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	closers []func() error
}

// newServices loads configuration, builds the logger and opens the database.
func newServices() (*services, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rt := &services{cfg: cfg, log: l, store: store.New(db)}
	rt.closers = append(rt.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return rt, nil
}

// credentials returns the sealed credential store backed by the settings table.
func (rt *services) credentials() (*credentials.Store, error) {
	return credentials.NewStore(rt.cfg.Credentials, rt.store.Settings)
}

// engine wires the reconciliation engine. Metrics are registered with reg when it is not nil.
func (rt *services) engine(ctx context.Context, reg prometheus.Registerer) (*reconcile.Engine, error) {
	creds, err := rt.credentials()
	if err != nil {
		return nil, err
	}

	locker, closeLocker, err := lock.New(rt.cfg.Redis, rt.cfg.Reconcile.LockTTL, rt.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	rt.closers = append(rt.closers, closeLocker)
	if rt.cfg.Redis.URL != "" {
		rt.log.Info("Using redis job locks")
	}

	var archive reconcile.Archive
	if rt.cfg.Storage.Enabled {
		client, err := storage.NewClient(rt.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a := storage.NewArchive(client, rt.cfg.Storage.Bucket)
		if err := a.EnsureBucket(ctx); err != nil {
			// Archiving is best-effort; jobs run without it.
			rt.log.Warn("Roster archive unavailable", zap.Error(err))
		} else {
			archive = a
		}
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	return reconcile.NewEngine(rt.cfg.Reconcile, reconcile.Deps{
		Tournaments:  rt.store.Tournaments,
		Applications: rt.store.Applications,
		Results:      rt.store.Results,
		Credentials:  creds,
		Registry:     registry.NewJBAClient(rt.cfg.Registry, nil, rt.log),
		Locker:       locker,
		Archive:      archive,
		Metrics:      m,
		Logger:       rt.log,
	}), nil
}

// Close releases connections in reverse order of acquisition.
func (rt *services) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = rt.log.Sync()
	return errors.Join(errs...)
}
