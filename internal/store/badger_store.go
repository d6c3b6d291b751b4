package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/session"
	"go.uber.org/zap"
)

const (
	sessionPrefix  = "session/"
	feedbackPrefix = "feedback/"
	patternPrefix  = "pattern/"
)

// BadgerStore persists sessions, feedback and adaptive patterns in BadgerDB.
//
// Every write is a single transaction keyed by its id, so concurrent sessions
// never observe each other's partial writes.
type BadgerStore struct {
	db         *DB
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewBadgerStore opens a BadgerDB-backed store.
func NewBadgerStore(cfg BadgerConfig, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := OpenDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, sessionTTL: cfg.SessionTTL, logger: logger}, nil
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// UpsertSession inserts or replaces the session record.
func (s *BadgerStore) UpsertSession(ctx context.Context, id string, rec *session.Record) error {
	if id == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", id, err)
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(sessionPrefix+id), data)
		if s.sessionTTL > 0 {
			e = e.WithTTL(s.sessionTTL)
		}
		return txn.SetEntry(e)
	})
}

// GetSession returns the session, or (nil, nil) when it does not exist.
func (s *BadgerStore) GetSession(ctx context.Context, id string) (*session.Record, error) {
	var rec *session.Record
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = &session.Record{}
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns every stored session in key order.
func (s *BadgerStore) ListSessions(ctx context.Context) ([]*session.Record, error) {
	out := make([]*session.Record, 0)
	err := s.scan(ctx, sessionPrefix, func(val []byte) error {
		rec := &session.Record{}
		if err := json.Unmarshal(val, rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return out, nil
}

// Append adds a feedback record. Keys sort by creation time within a session.
func (s *BadgerStore) Append(ctx context.Context, rec learning.FeedbackRecord) error {
	if rec.SessionID == "" || rec.ID == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling feedback %s: %w", rec.ID, err)
	}
	key := fmt.Sprintf("%s%s/%020d/%s", feedbackPrefix, rec.SessionID, rec.CreatedAt.UnixNano(), rec.ID)
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// List returns the feedback for a session, oldest first.
func (s *BadgerStore) List(ctx context.Context, sessionID string) ([]learning.FeedbackRecord, error) {
	out := make([]learning.FeedbackRecord, 0)
	err := s.scan(ctx, feedbackPrefix+sessionID+"/", func(val []byte) error {
		var rec learning.FeedbackRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing feedback for %s: %w", sessionID, err)
	}
	return out, nil
}

// UpsertPattern inserts or replaces an adaptive pattern.
func (s *BadgerStore) UpsertPattern(ctx context.Context, p learning.AdaptivePattern) error {
	if p.ID == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling pattern %s: %w", p.ID, err)
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(patternPrefix+p.ID), data)
	})
}

// maxTxnRetries bounds retries of a read-modify-write that lost a conflict.
const maxTxnRetries = 64

// UpdatePattern applies fn to the stored pattern in one transaction, retrying
// when a concurrent update commits first.
func (s *BadgerStore) UpdatePattern(ctx context.Context, id string, fn func(existing *learning.AdaptivePattern) learning.AdaptivePattern) error {
	if id == "" {
		return ErrEmptyKey
	}
	key := []byte(patternPrefix + id)

	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
			var existing *learning.AdaptivePattern
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				existing = &learning.AdaptivePattern{}
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, existing)
				}); err != nil {
					return err
				}
			}

			p := fn(existing)
			p.ID = id
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("pattern update conflict, retrying",
			zap.String("pattern_id", id),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return fmt.Errorf("updating pattern %s: %w", id, err)
	}
	return nil
}

// GetPattern returns the pattern, or (nil, nil) when it does not exist.
func (s *BadgerStore) GetPattern(ctx context.Context, id string) (*learning.AdaptivePattern, error) {
	var p *learning.AdaptivePattern
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(patternPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			p = &learning.AdaptivePattern{}
			return json.Unmarshal(val, p)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("getting pattern %s: %w", id, err)
	}
	return p, nil
}

// QueryByDomainOrType returns patterns matching the domain or the problem type,
// best success rate first.
func (s *BadgerStore) QueryByDomainOrType(ctx context.Context, domain string, problemType problem.Type, limit int) ([]learning.AdaptivePattern, error) {
	all := make([]learning.AdaptivePattern, 0)
	err := s.scan(ctx, patternPrefix, func(val []byte) error {
		var p learning.AdaptivePattern
		if err := json.Unmarshal(val, &p); err != nil {
			return err
		}
		all = append(all, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	return filterPatterns(all, domain, problemType, limit), nil
}

func (s *BadgerStore) scan(ctx context.Context, prefix string, fn func(val []byte) error) error {
	return s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
