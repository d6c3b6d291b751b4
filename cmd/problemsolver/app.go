package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/problemsolver/internal/catalog"
	"github.com/fyrsmithlabs/problemsolver/internal/config"
	"github.com/fyrsmithlabs/problemsolver/internal/knowledge"
	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/logging"
	"github.com/fyrsmithlabs/problemsolver/internal/solver"
	"github.com/fyrsmithlabs/problemsolver/internal/store"
	"github.com/fyrsmithlabs/problemsolver/internal/telemetry"
)

// backend is what the solver needs from storage.
type backend interface {
	solver.SessionStore
	learning.PatternStore
	learning.FeedbackLog
}

// app holds the wired components for one CLI invocation.
type app struct {
	solver *solver.Solver
	logger *logging.Logger
	tel    *telemetry.Telemetry

	closers []func() error
}

func newApp(ctx context.Context, configPath string, reg prometheus.Registerer) (_ *app, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	loader, err := config.NewLoader(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := loader.Config()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := logging.NewDefaultConfig()
	if err := loader.Section("logging", logCfg); err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	zl := logger.Underlying()

	telCfg := telemetry.NewDefaultConfig()
	if err := loader.Section("telemetry", telCfg); err != nil {
		return nil, err
	}
	tel, err := telemetry.New(ctx, telCfg, zl)
	if err != nil {
		return nil, err
	}

	a := &app{logger: logger, tel: tel}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	bundle, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	ks, err := newKnowledge(ctx, cfg.Knowledge, bundle, zl)
	if err != nil {
		return nil, err
	}

	st, err := a.openStorage(cfg.Storage, zl)
	if err != nil {
		return nil, err
	}

	a.solver, err = solver.New(st, zl,
		solver.WithCatalog(bundle),
		solver.WithMatching(cfg.Solver.SimilarityThreshold, cfg.Solver.MaxMatches),
		solver.WithMaxSolutions(cfg.Solver.MaxSolutions),
		solver.WithKnowledge(ks),
		solver.WithPatternStore(st),
		solver.WithFeedbackLog(st),
		solver.WithRegisterer(reg),
		solver.WithTracer(tel.Tracer(solver.InstrumentationName)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}

	logger.Debug(ctx, "problemsolver ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("telemetry", tel.IsEnabled()))
	return a, nil
}

func newKnowledge(ctx context.Context, cfg config.KnowledgeConfig, bundle *catalog.Bundle, logger *zap.Logger) (*knowledge.Store, error) {
	ks, err := knowledge.NewStore(knowledge.Config{
		Path:       cfg.Path,
		Compress:   cfg.Compress,
		Dimensions: cfg.Dimensions,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}

	entries := bundle.Knowledge
	if cfg.SeedFile != "" {
		entries, err = catalog.LoadKnowledge(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("loading knowledge seed: %w", err)
		}
	}
	if err := ks.Seed(ctx, entries); err != nil {
		return nil, fmt.Errorf("seeding knowledge: %w", err)
	}
	return ks, nil
}

func (a *app) openStorage(cfg config.StorageConfig, logger *zap.Logger) (backend, error) {
	if cfg.Backend != config.BackendBadger {
		return store.NewMemoryStore(cfg.SessionTTL.Duration()), nil
	}

	bs, err := store.NewBadgerStore(store.BadgerConfig{
		Path:           cfg.Path,
		SyncWrites:     cfg.SyncWrites,
		SessionTTL:     cfg.SessionTTL.Duration(),
		GCInterval:     cfg.GCInterval.Duration(),
		GCDiscardRatio: cfg.GCDiscardRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	a.closers = append(a.closers, bs.Close)
	return bs, nil
}

// Close releases storage, flushes spans and syncs the logger.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := a.tel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.logger.Sync(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
