package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockKnowledge struct {
	hits    map[string][]KnowledgeHit
	err     error
	queries []string
}

func (m *mockKnowledge) QueryByTerm(_ context.Context, term string, limit int) ([]KnowledgeHit, error) {
	m.queries = append(m.queries, term)
	if m.err != nil {
		return nil, m.err
	}
	hits := m.hits[term]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type mockPatterns struct {
	patterns []AdaptivePattern
	err      error
}

func (m *mockPatterns) QueryByDomainOrType(_ context.Context, domain string, pt problem.Type, limit int) ([]AdaptivePattern, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []AdaptivePattern{}
	for _, p := range m.patterns {
		if (p.Domain == domain || p.ProblemType == pt) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatterns) GetPattern(_ context.Context, id string) (*AdaptivePattern, error) {
	for _, p := range m.patterns {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockPatterns) UpsertPattern(_ context.Context, p AdaptivePattern) error {
	m.patterns = append(m.patterns, p)
	return nil
}

type mockFeedback struct {
	mu      sync.Mutex
	records []FeedbackRecord
	err     error
}

func (m *mockFeedback) Append(_ context.Context, rec FeedbackRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockFeedback) List(_ context.Context, sessionID string) ([]FeedbackRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []FeedbackRecord{}
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func testStructure() problem.Structure {
	return problem.Structure{
		ProblemID:       "prob_1",
		Type:            problem.TypeOptimization,
		Domain:          "business",
		Keywords:        []string{"revenue", "budget", "staff", "availability", "maximize", "subject"},
		ComplexityScore: 0.2,
	}
}

func testSolutions() []problem.SolutionApproach {
	return []problem.SolutionApproach{
		{Strategy: problem.StrategyAnalytical, ConfidenceScore: 0.9, EstimatedTime: 60, RiskLevel: problem.RiskLow},
		{Strategy: problem.StrategyIterative, ConfidenceScore: 0.8, EstimatedTime: 40, RiskLevel: problem.RiskLow},
		{Strategy: problem.StrategyCreative, ConfidenceScore: 0.5, EstimatedTime: 30, RiskLevel: problem.RiskHigh},
	}
}

func TestIntegrate_BuiltinMatches(t *testing.T) {
	hits := map[string][]KnowledgeHit{}
	for _, kw := range []string{"revenue", "budget", "staff", "availability", "maximize", "subject"} {
		for i := 0; i < 3; i++ {
			hits[kw] = append(hits[kw], KnowledgeHit{Content: fmt.Sprintf("%s fact %d", kw, i), Confidence: 0.3})
		}
	}
	hits["budget"] = append(hits["budget"], KnowledgeHit{Content: "revenue fact 0"})
	knowledge := &mockKnowledge{hits: hits}
	b := NewBridge(Config{Knowledge: knowledge}, nil)

	result := b.Integrate(context.Background(), testStructure(), testSolutions())

	assert.Len(t, result.BuiltinMatches, MaxBuiltinMatches)
	assert.Equal(t, []string{"revenue", "budget", "staff", "availability"}, knowledge.queries)
	for _, h := range result.BuiltinMatches {
		assert.Equal(t, BuiltinConfidence, h.Confidence)
		assert.NotEmpty(t, h.Term)
	}
	assert.NotContains(t, knowledge.queries, "subject")
}

func TestIntegrate_CollaboratorFailuresDegrade(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var failed []string
	b := NewBridge(Config{
		Knowledge: &mockKnowledge{err: errors.New("connection refused")},
		Patterns:  &mockPatterns{err: errors.New("timeout")},
		OnCollaboratorError: func(name string, _ error) {
			failed = append(failed, name)
		},
	}, zap.New(core))

	result := b.Integrate(context.Background(), testStructure(), testSolutions())

	assert.Empty(t, result.BuiltinMatches)
	assert.Empty(t, result.AdaptiveMatches)
	assert.NotNil(t, result.AdaptiveMatches)
	assert.NotEmpty(t, result.Recommendations)
	assert.Contains(t, failed, CollaboratorKnowledge)
	assert.Contains(t, failed, CollaboratorPatterns)
	assert.Equal(t, KeywordQueries+1, logs.Len())
}

func TestIntegrate_NilCollaborators(t *testing.T) {
	b := NewBridge(Config{}, nil)

	result := b.Integrate(context.Background(), testStructure(), nil)

	assert.NotNil(t, result.BuiltinMatches)
	assert.NotNil(t, result.AdaptiveMatches)
	assert.Empty(t, result.CrossDomainInsights)
	assert.Contains(t, result.Recommendations, "Expand the knowledge base for the business domain")
	assert.Contains(t, result.Recommendations, "Gather more domain knowledge to raise confidence in the generated solutions")
}

func TestIntegrate_CrossDomainInsights(t *testing.T) {
	patterns := &mockPatterns{patterns: []AdaptivePattern{
		{ID: "p1", PatternType: "analytical", Domain: "science", ProblemType: problem.TypeOptimization},
		{ID: "p2", PatternType: "analytical", Domain: "engineering", ProblemType: problem.TypeOptimization},
		{ID: "p3", PatternType: "creative", Domain: "business", ProblemType: problem.TypeDesign},
	}}
	b := NewBridge(Config{Patterns: patterns}, nil)

	result := b.Integrate(context.Background(), testStructure(), testSolutions())

	require.Len(t, result.AdaptiveMatches, 3)
	assert.Equal(t, []string{
		"The analytical strategy is shared across domains: business, engineering, science",
		"Complexity 0.20 corresponds to an average estimated time of 50 minutes across 2 high-confidence solutions",
	}, result.CrossDomainInsights)
}

func TestRecommendations(t *testing.T) {
	ps := problem.Structure{Domain: "technology", ComplexityScore: 0.9}
	risky := []problem.SolutionApproach{
		{Strategy: problem.StrategyCreative, ConfidenceScore: 0.4, RiskLevel: problem.RiskHigh},
		{Strategy: problem.StrategyCreative, ConfidenceScore: 0.4, RiskLevel: problem.RiskHigh},
		{Strategy: problem.StrategyIterative, ConfidenceScore: 0.4, RiskLevel: problem.RiskLow},
	}

	recs := recommendations(ps, risky, nil, nil)

	assert.Equal(t, []string{
		"Consider diversifying the solution strategies to cover more reasoning approaches",
		"Gather more domain knowledge to raise confidence in the generated solutions",
		"Expand the knowledge base for the technology domain",
		"Collect more solved problems so adaptive patterns can be learned",
		"Develop lower-risk strategies for highly complex problems",
	}, recs)

	healthy := recommendations(
		problem.Structure{Domain: "business", ComplexityScore: 0.3},
		testSolutions(),
		make([]KnowledgeHit, 3),
		make([]AdaptivePattern, 2),
	)
	assert.Empty(t, healthy)
}

func TestRecordFeedback(t *testing.T) {
	log := &mockFeedback{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewBridge(Config{Feedback: log, Now: func() time.Time { return fixed }}, nil)
	ctx := context.Background()

	rec, err := b.RecordFeedback(ctx, "sess_1", "hybrid_analytical_iterative_prob_1", Feedback{Rating: 0.9, Success: true})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, problem.StrategyHybrid, rec.Strategy)
	assert.Equal(t, fixed, rec.CreatedAt)
	require.Len(t, log.records, 1)

	history, err := b.History(ctx, "sess_1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRecordFeedback_Validation(t *testing.T) {
	b := NewBridge(Config{Feedback: &mockFeedback{}}, nil)
	ctx := context.Background()

	_, err := b.RecordFeedback(ctx, "sess_1", "", Feedback{Rating: 0.5})
	assert.ErrorIs(t, err, ErrEmptyApproachID)

	_, err = b.RecordFeedback(ctx, "sess_1", "analytical_prob_1", Feedback{Rating: 1.5})
	assert.ErrorIs(t, err, ErrInvalidFeedback)

	_, err = b.RecordFeedback(ctx, "sess_1", "analytical_prob_1", Feedback{Rating: -0.1})
	assert.ErrorIs(t, err, ErrInvalidFeedback)
}

func TestRecordFeedback_LogFailure(t *testing.T) {
	var failed []string
	b := NewBridge(Config{
		Feedback:            &mockFeedback{err: errors.New("disk full")},
		OnCollaboratorError: func(name string, _ error) { failed = append(failed, name) },
	}, nil)

	_, err := b.RecordFeedback(context.Background(), "sess_1", "analytical_prob_1", Feedback{Rating: 0.5})

	require.Error(t, err)
	assert.Equal(t, []string{CollaboratorFeedback}, failed)
}

func TestExtractInsights(t *testing.T) {
	history := []FeedbackRecord{
		{Strategy: problem.StrategyIterative, Feedback: Feedback{Rating: 0.9}},
		{Strategy: problem.StrategyAnalytical, Feedback: Feedback{Rating: 0.8}},
		{Strategy: problem.StrategyIterative, Feedback: Feedback{Rating: 0.75}},
		{Strategy: problem.StrategyCreative, Feedback: Feedback{Rating: 0.1, Challenges: []string{"time", "budget"}}},
		{Strategy: problem.StrategyCreative, Feedback: Feedback{Rating: 0.2, Challenges: []string{"budget"}}},
		{Strategy: problem.StrategySystematic, Feedback: Feedback{Rating: 0.5, Challenges: []string{"time", "time"}}},
	}

	got := ExtractInsights(history)

	assert.Equal(t, Insights{
		Total:        6,
		HighRated:    3,
		LowRated:     2,
		TopStrategy:  problem.StrategyIterative,
		TopChallenge: "budget",
	}, got)
}

func TestExtractInsights_TiesAndEmpty(t *testing.T) {
	assert.Equal(t, Insights{}, ExtractInsights(nil))

	got := ExtractInsights([]FeedbackRecord{
		{Strategy: problem.StrategySystematic, Feedback: Feedback{Rating: 0.9}},
		{Strategy: problem.StrategyAnalytical, Feedback: Feedback{Rating: 0.9}},
		{Feedback: Feedback{Rating: 0.0, Challenges: []string{"staffing", "scope"}}},
	})
	assert.Equal(t, problem.StrategyAnalytical, got.TopStrategy)
	assert.Equal(t, "scope", got.TopChallenge)
}

func TestStrategyFromApproachID(t *testing.T) {
	assert.Equal(t, problem.StrategyAnalytical, StrategyFromApproachID("analytical_prob_1"))
	assert.Equal(t, problem.StrategyHybrid, StrategyFromApproachID("hybrid_a_b_prob_1"))
	assert.Equal(t, problem.Strategy(""), StrategyFromApproachID("bogus"))
}
