package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is the union of the collaborator interfaces both stores implement.
type backend interface {
	UpsertSession(ctx context.Context, id string, rec *session.Record) error
	GetSession(ctx context.Context, id string) (*session.Record, error)
	ListSessions(ctx context.Context) ([]*session.Record, error)
	learning.FeedbackLog
	learning.PatternStore
	learning.PatternUpdater
}

func backends(t *testing.T) map[string]backend {
	t.Helper()

	cfg := BadgerConfig{InMemory: true}
	bs, err := NewBadgerStore(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]backend{
		"badger": bs,
		"memory": NewMemoryStore(0),
	}
}

func sampleRecord(id string) *session.Record {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &session.Record{
		SessionID: id,
		Status:    session.StatusCompleted,
		Problem: problem.Structure{
			ProblemID:     problem.NewProblemID("Design a bridge"),
			OriginalText:  "Design a bridge",
			Type:          problem.TypeDesign,
			Domain:        "engineering",
			KeyComponents: []string{"design", "bridge"},
		},
		Solutions: []problem.SolutionApproach{
			{ApproachID: "iterative_x", Strategy: problem.StrategyIterative, RiskLevel: problem.RiskLow, ConfidenceScore: 0.8},
		},
		CreatedAt:      created,
		CompletedAt:    created.Add(time.Second),
		ProcessingTime: time.Second,
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := b.GetSession(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, b.UpsertSession(ctx, "sess_b", sampleRecord("sess_b")))
			require.NoError(t, b.UpsertSession(ctx, "sess_a", sampleRecord("sess_a")))

			got, err = b.GetSession(ctx, "sess_a")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, sampleRecord("sess_a"), got)

			updated := sampleRecord("sess_a")
			updated.Status = session.StatusFailed
			require.NoError(t, b.UpsertSession(ctx, "sess_a", updated))

			all, err := b.ListSessions(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "sess_a", all[0].SessionID)
			assert.Equal(t, session.StatusFailed, all[0].Status)
			assert.Equal(t, "sess_b", all[1].SessionID)

			assert.ErrorIs(t, b.UpsertSession(ctx, "", sampleRecord("")), ErrEmptyKey)
		})
	}
}

func TestSessions_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := fmt.Sprintf("sess_%02d", i)
					assert.NoError(t, b.UpsertSession(ctx, id, sampleRecord(id)))
				}(i)
			}
			wg.Wait()

			all, err := b.ListSessions(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 20)
			for _, rec := range all {
				assert.Equal(t, sampleRecord(rec.SessionID), rec)
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				require.NoError(t, b.Append(ctx, learning.FeedbackRecord{
					ID:         fmt.Sprintf("fb%d", i),
					SessionID:  "sess_1",
					ApproachID: "analytical_x",
					Strategy:   problem.StrategyAnalytical,
					Feedback:   learning.Feedback{Rating: float64(i) / 4, Challenges: []string{"time"}},
					CreatedAt:  base.Add(time.Duration(i) * time.Minute),
				}))
			}
			require.NoError(t, b.Append(ctx, learning.FeedbackRecord{ID: "other", SessionID: "sess_2", CreatedAt: base}))

			got, err := b.List(ctx, "sess_1")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "fb0", got[0].ID)
			assert.Equal(t, "fb2", got[2].ID)
			assert.Equal(t, []string{"time"}, got[1].Challenges)

			none, err := b.List(ctx, "sess_unknown")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestPatterns(t *testing.T) {
	ctx := context.Background()
	patterns := []learning.AdaptivePattern{
		{ID: "a", PatternType: "analytical", Domain: "business", ProblemType: problem.TypeOptimization, SuccessRate: 0.6},
		{ID: "b", PatternType: "iterative", Domain: "technology", ProblemType: problem.TypeOptimization, SuccessRate: 0.9},
		{ID: "c", PatternType: "creative", Domain: "business", ProblemType: problem.TypeDesign, SuccessRate: 0.6},
		{ID: "d", PatternType: "systematic", Domain: "healthcare", ProblemType: problem.TypeIntegration, SuccessRate: 0.99},
	}
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range patterns {
				require.NoError(t, b.UpsertPattern(ctx, p))
			}

			got, err := b.QueryByDomainOrType(ctx, "business", problem.TypeOptimization, 10)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, []string{"b", "a", "c"}, ids)

			limited, err := b.QueryByDomainOrType(ctx, "business", problem.TypeOptimization, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			p, err := b.GetPattern(ctx, "d")
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, patterns[3], *p)

			missing, err := b.GetPattern(ctx, "zzz")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestUpdatePattern_ConcurrentUpdatesAllApply(t *testing.T) {
	ctx := context.Background()
	const writers = 20

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- b.UpdatePattern(ctx, "shared", func(existing *learning.AdaptivePattern) learning.AdaptivePattern {
						p := learning.AdaptivePattern{Domain: "business"}
						if existing != nil {
							p = *existing
						}
						p.Samples++
						return p
					})
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			p, err := b.GetPattern(ctx, "shared")
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, "shared", p.ID)
			assert.Equal(t, "business", p.Domain)
			assert.Equal(t, writers, p.Samples)
		})
	}
}

func TestUpdatePattern_EmptyID(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := b.UpdatePattern(context.Background(), "", func(*learning.AdaptivePattern) learning.AdaptivePattern {
				return learning.AdaptivePattern{}
			})
			assert.ErrorIs(t, err, ErrEmptyKey)
		})
	}
}

func TestSessions_StoredCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord("sess_iso")
			require.NoError(t, b.UpsertSession(ctx, rec.SessionID, rec))

			rec.Solutions[0].ConfidenceScore = 0.1
			rec.Problem.KeyComponents[0] = "mutated"

			got, err := b.GetSession(ctx, "sess_iso")
			require.NoError(t, err)
			assert.Equal(t, 0.8, got.Solutions[0].ConfidenceScore)
			assert.Equal(t, "design", got.Problem.KeyComponents[0])

			got.Solutions[0].ConfidenceScore = 0.2
			again, err := b.GetSession(ctx, "sess_iso")
			require.NoError(t, err)
			assert.Equal(t, 0.8, again.Solutions[0].ConfidenceScore)

			all, err := b.ListSessions(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			all[0].Problem.KeyComponents[0] = "listed"
			again, err = b.GetSession(ctx, "sess_iso")
			require.NoError(t, err)
			assert.Equal(t, "design", again.Problem.KeyComponents[0])
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := BadgerConfig{Path: dir}

	s, err := NewBadgerStore(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.UpsertSession(ctx, "sess_1", sampleRecord("sess_1")))
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSession(ctx, "sess_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess_1", got.SessionID)
}

func TestOpenDB_RequiresPath(t *testing.T) {
	_, err := OpenDB(BadgerConfig{}, nil)
	require.Error(t, err)
}

func TestBadgerStore_CancelledContext(t *testing.T) {
	s, err := NewBadgerStore(BadgerConfig{InMemory: true}, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.UpsertSession(ctx, "sess_1", sampleRecord("sess_1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	rec := sampleRecord("sess_json")

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var back session.Record
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, *rec, back)
}
