package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/session"
	"github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired sessions are purged.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryStore keeps sessions, feedback and patterns in process memory.
// Sessions expire after the configured TTL; feedback and patterns never expire.
//
// Sessions are held as JSON so callers never share slices with the stored copy.
type MemoryStore struct {
	sessions *cache.Cache
	patterns *cache.Cache

	mu       sync.Mutex
	feedback map[string][]learning.FeedbackRecord

	patternMu sync.Mutex
}

// NewMemoryStore creates a MemoryStore. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{
		sessions: cache.New(ttl, DefaultCleanupInterval),
		patterns: cache.New(cache.NoExpiration, 0),
		feedback: make(map[string][]learning.FeedbackRecord),
	}
}

// UpsertSession inserts or replaces the session record.
func (m *MemoryStore) UpsertSession(_ context.Context, id string, rec *session.Record) error {
	if id == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", id, err)
	}
	m.sessions.Set(id, data, cache.DefaultExpiration)
	return nil
}

// GetSession returns the session, or (nil, nil) when absent.
func (m *MemoryStore) GetSession(_ context.Context, id string) (*session.Record, error) {
	x, found := m.sessions.Get(id)
	if !found {
		return nil, nil
	}
	return decodeSession(id, x.([]byte))
}

// ListSessions returns all live sessions ordered by id.
func (m *MemoryStore) ListSessions(_ context.Context) ([]*session.Record, error) {
	items := m.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*session.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := decodeSession(id, items[id].Object.([]byte))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeSession(id string, data []byte) (*session.Record, error) {
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &rec, nil
}

// Append adds a feedback record.
func (m *MemoryStore) Append(_ context.Context, rec learning.FeedbackRecord) error {
	if rec.SessionID == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[rec.SessionID] = append(m.feedback[rec.SessionID], rec)
	return nil
}

// List returns the feedback for a session in append order.
func (m *MemoryStore) List(_ context.Context, sessionID string) ([]learning.FeedbackRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]learning.FeedbackRecord{}, m.feedback[sessionID]...), nil
}

// UpsertPattern inserts or replaces an adaptive pattern.
func (m *MemoryStore) UpsertPattern(_ context.Context, p learning.AdaptivePattern) error {
	if p.ID == "" {
		return ErrEmptyKey
	}
	m.patternMu.Lock()
	defer m.patternMu.Unlock()
	m.patterns.Set(p.ID, p, cache.NoExpiration)
	return nil
}

// UpdatePattern applies fn to the stored pattern under the pattern lock.
func (m *MemoryStore) UpdatePattern(_ context.Context, id string, fn func(existing *learning.AdaptivePattern) learning.AdaptivePattern) error {
	if id == "" {
		return ErrEmptyKey
	}
	m.patternMu.Lock()
	defer m.patternMu.Unlock()

	var existing *learning.AdaptivePattern
	if x, found := m.patterns.Get(id); found {
		p := x.(learning.AdaptivePattern)
		existing = &p
	}
	p := fn(existing)
	p.ID = id
	m.patterns.Set(id, p, cache.NoExpiration)
	return nil
}

// GetPattern returns the pattern, or (nil, nil) when absent.
func (m *MemoryStore) GetPattern(_ context.Context, id string) (*learning.AdaptivePattern, error) {
	x, found := m.patterns.Get(id)
	if !found {
		return nil, nil
	}
	p := x.(learning.AdaptivePattern)
	return &p, nil
}

// QueryByDomainOrType returns patterns matching the domain or the problem type,
// best success rate first.
func (m *MemoryStore) QueryByDomainOrType(_ context.Context, domain string, problemType problem.Type, limit int) ([]learning.AdaptivePattern, error) {
	items := m.patterns.Items()
	all := make([]learning.AdaptivePattern, 0, len(items))
	for _, it := range items {
		all = append(all, it.Object.(learning.AdaptivePattern))
	}
	return filterPatterns(all, domain, problemType, limit), nil
}
