package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerConfig configures a BadgerDB instance.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// SessionTTL expires session records. Zero keeps them forever.
	SessionTTL time.Duration

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the garbage ratio that triggers a value log rewrite.
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// zapBadgerLogger adapts zap to badger's Logger interface.
type zapBadgerLogger struct {
	s *zap.SugaredLogger
}

func (l *zapBadgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *zapBadgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l *zapBadgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l *zapBadgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// DB wraps a BadgerDB instance with a value log GC loop.
type DB struct {
	*badger.DB
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger
}

// OpenDB opens a BadgerDB and starts value log GC when configured.
func OpenDB(cfg BadgerConfig, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&zapBadgerLogger{s: logger.Named("badger").Sugar()})

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	db := &DB{DB: bdb, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		if cfg.GCDiscardRatio <= 0 || cfg.GCDiscardRatio > 1 {
			cfg.GCDiscardRatio = 0.5
		}
		db.stopCh = make(chan struct{})
		db.doneCh = make(chan struct{})
		go db.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return db, nil
}

func (d *DB) runGC(interval time.Duration, ratio float64) {
	defer close(d.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect.
			if err := d.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				d.logger.Warn("badger value log GC failed", zap.Error(err))
			}
		}
	}
}

// Close stops GC and closes the database.
func (d *DB) Close() error {
	if d.stopCh != nil {
		close(d.stopCh)
		<-d.doneCh
		d.stopCh = nil
	}
	return d.DB.Close()
}

// WithTxn runs fn in a read-write transaction and commits when it returns nil.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	txn := d.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// WithReadTxn runs fn in a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	txn := d.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}
