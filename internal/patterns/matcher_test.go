package patterns

import (
	"testing"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optimizationStructure() problem.Structure {
	return problem.Structure{
		ProblemID:       "prob_test",
		Type:            problem.TypeOptimization,
		Domain:          "business",
		KeyComponents:   []string{"maximize", "revenue", "budget"},
		Relationships:   []problem.Relationship{{Source: "maximize", Kind: "related_to", Target: "revenue"}},
		Constraints:     []string{"a budget of $10000"},
		Objectives:      []string{"Maximize revenue"},
		ComplexityScore: 0.21,
	}
}

func TestProblemTags(t *testing.T) {
	tests := []struct {
		name string
		ps   problem.Structure
		want []string
	}{
		{
			name: "optimization with constraints",
			ps:   optimizationStructure(),
			want: []string{TagConstrained, TagOptimization, "related_to", TagSimpleProblem},
		},
		{
			name: "complex decision",
			ps: problem.Structure{
				StructuralPatterns: []problem.StructuralTag{problem.TagComparison},
				Objectives:         []string{"Choose a vendor"},
				ComplexityScore:    0.75,
			},
			want: []string{"comparison_pattern", TagComplexSystem, TagDecisionMaking},
		},
		{
			name: "moderate prediction",
			ps: problem.Structure{
				Objectives:      []string{"Forecast demand"},
				ComplexityScore: 0.5,
			},
			want: []string{TagModerateComplexity, TagPrediction},
		},
		{
			name: "empty structure",
			ps:   problem.Structure{},
			want: []string{TagSimpleProblem},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProblemTags(tt.ps))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity([]string{"a", "b"}, []string{"b", "a"}))
	assert.Equal(t, 0.0, Similarity([]string{"a"}, []string{"b"}))
	assert.Equal(t, 0.0, Similarity(nil, nil))
	assert.InDelta(t, 1.0/3.0, Similarity([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
	assert.InDelta(t, 0.5, Similarity([]string{"a", "a", "b"}, []string{"a"}), 1e-9)
}

func TestKeyBonus(t *testing.T) {
	assert.Equal(t, 0.0, KeyBonus([]string{"related_to"}, []string{"related_to"}))
	assert.InDelta(t, 0.1, KeyBonus([]string{TagOptimization}, []string{TagOptimization}), 1e-9)
	assert.InDelta(t, 0.1, KeyBonus([]string{TagNetwork}, []string{"network_flow"}), 1e-9)
	assert.InDelta(t, 0.3, KeyBonus(
		[]string{TagOptimization, TagDecisionMaking, TagHierarchy, TagNetwork},
		[]string{TagOptimization, TagDecisionMaking, TagHierarchy, TagNetwork},
	), 1e-9)
}

func TestFindMatches_DefaultCatalog(t *testing.T) {
	m, err := NewMatcher(Config{}, nil)
	require.NoError(t, err)

	matches := m.FindMatches(optimizationStructure())

	require.Len(t, matches, 1)
	got := matches[0]
	assert.Equal(t, "resource_allocation", got.PatternID)
	assert.Equal(t, CategoryOptimization, got.Category)
	assert.Equal(t, 1.0, got.SimilarityScore)
	assert.Equal(t, problem.ConfidenceVeryHigh, got.ConfidenceLevel)
	assert.Equal(t, []string{"constraint_integration"}, got.AdaptationNeeded)
	assert.NotEmpty(t, got.SolutionTemplate)
}

func TestFindMatches_IdenticalEntriesKeepCatalogOrder(t *testing.T) {
	ps := optimizationStructure()
	tags := ProblemTags(ps)
	catalog := Catalog{Entries: []Entry{
		{ID: "first", Name: "First", Category: CategoryOptimization, SourceDomains: []string{"science"}, Tags: tags},
		{ID: "second", Name: "Second", Category: CategoryOptimization, SourceDomains: []string{"business"}, Tags: tags},
	}}
	m, err := NewMatcher(Config{Catalog: catalog}, nil)
	require.NoError(t, err)

	matches := m.FindMatches(ps)

	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].PatternID)
	assert.Equal(t, "second", matches[1].PatternID)
	assert.Equal(t, 1.0, matches[0].SimilarityScore)
	assert.Equal(t, 1.0, matches[1].SimilarityScore)
	assert.Contains(t, matches[0].AdaptationNeeded, "domain_adaptation_from_science_to_business")
	assert.NotContains(t, matches[1].AdaptationNeeded, "domain_adaptation_from_business_to_business")
}

func TestFindMatches_ThresholdAndCap(t *testing.T) {
	ps := optimizationStructure()
	tags := ProblemTags(ps)

	entries := make([]Entry, 0, 14)
	for i := 0; i < 12; i++ {
		entries = append(entries, Entry{
			ID:       string(rune('a' + i)),
			Category: CategoryStructural,
			Tags:     tags,
		})
	}
	entries = append(entries, Entry{ID: "miss", Category: CategoryDecision, Tags: []string{"unrelated"}})
	m, err := NewMatcher(Config{Catalog: Catalog{Entries: entries}}, nil)
	require.NoError(t, err)

	matches := m.FindMatches(ps)

	assert.Len(t, matches, problem.MaxPatternMatches)
	for _, match := range matches {
		assert.GreaterOrEqual(t, match.SimilarityScore, DefaultSimilarityThreshold)
		assert.NotEqual(t, "miss", match.PatternID)
	}
}

func TestFindMatches_SortedDescending(t *testing.T) {
	ps := optimizationStructure()
	tags := ProblemTags(ps)
	partial := append([]string{"extra"}, tags...)
	catalog := Catalog{Entries: []Entry{
		{ID: "partial", Category: CategoryOptimization, Tags: partial},
		{ID: "exact", Category: CategoryOptimization, Tags: tags},
	}}
	m, err := NewMatcher(Config{Catalog: catalog, SimilarityThreshold: 0.5}, nil)
	require.NoError(t, err)

	matches := m.FindMatches(ps)

	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].PatternID)
	assert.Greater(t, matches[0].SimilarityScore, matches[1].SimilarityScore)
}

func TestAdaptations(t *testing.T) {
	ps := problem.Structure{
		Domain:          "healthcare",
		Constraints:     []string{"within budget"},
		Objectives:      []string{"reduce wait", "improve care"},
		ComplexityScore: 0.9,
	}

	got := adaptations(ps, Entry{SourceDomains: []string{"engineering"}})

	assert.Equal(t, []string{
		"domain_adaptation_from_engineering_to_healthcare",
		"complexity_scaling",
		"constraint_integration",
		"multi_objective_handling",
	}, got)
}

func TestNewMatcher_InvalidCatalog(t *testing.T) {
	_, err := NewMatcher(Config{Catalog: Catalog{Entries: []Entry{{ID: "x", Category: CategoryDecision}}}}, nil)
	require.Error(t, err)

	_, err = NewMatcher(Config{Catalog: Catalog{Entries: []Entry{
		{ID: "x", Category: CategoryDecision, Tags: []string{"a"}},
		{ID: "x", Category: CategoryDecision, Tags: []string{"a"}},
	}}}, nil)
	require.Error(t, err)
}

func TestDefaultCatalog_Valid(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())

	categories := map[string]int{}
	for _, e := range c.Entries {
		categories[e.Category]++
	}
	assert.Positive(t, categories[CategoryOptimization])
	assert.Positive(t, categories[CategoryStructural])
	assert.Positive(t, categories[CategoryDecision])
}
