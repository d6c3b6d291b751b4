package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/problemsolver/internal/knowledge"
	"github.com/fyrsmithlabs/problemsolver/internal/patterns"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/strategy"
	"github.com/fyrsmithlabs/problemsolver/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, structure.DefaultRules(), b.Rules)
	assert.Equal(t, patterns.DefaultCatalog(), b.Patterns)
	assert.Equal(t, strategy.DefaultCatalog(), b.Strategies)
	assert.Equal(t, knowledge.DefaultEntries(), b.Knowledge)
}

func TestLoad_PresentSectionReplacesDefault(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
patterns:
  version: "2"
  entries:
    - id: queue_balancing
      name: Queue Balancing
      category: optimization
      source_domains: [operations]
      tags: [optimization, network_structure]
      solution_template: Spread arrivals across servers by current load.
`)

	b, err := Load(path)
	require.NoError(t, err)

	require.Len(t, b.Patterns.Entries, 1)
	assert.Equal(t, "2", b.Patterns.Version)
	e := b.Patterns.Entries[0]
	assert.Equal(t, "queue_balancing", e.ID)
	assert.Equal(t, []string{"operations"}, e.SourceDomains)
	assert.Equal(t, []string{"optimization", "network_structure"}, e.Tags)

	// Absent sections keep their defaults.
	assert.Equal(t, structure.DefaultRules(), b.Rules)
	assert.Equal(t, strategy.DefaultCatalog(), b.Strategies)
	assert.Equal(t, knowledge.DefaultEntries(), b.Knowledge)
}

func TestLoad_StrategiesAndRules(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
rules:
  version: "7"
  type_triggers:
    - type: PREDICTION
      phrases: [forecast]
  domains:
    - domain: logistics
      keywords: [truck, route]
strategies:
  strategies:
    - strategy: iterative
      description: Small cycles.
      steps: [Start small, Measure, Adjust]
      time_factor: 1.1
      risk_level: LOW
      success_probability: 0.75
  type_strategies:
    - type: PREDICTION
      strategies: [iterative]
knowledge:
  - id: truck_load
    domain: logistics
    content: Load trucks heaviest first.
`)

	b, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7", b.Rules.Version)
	require.Len(t, b.Rules.TypeTriggers, 1)
	assert.Equal(t, problem.TypePrediction, b.Rules.TypeTriggers[0].Type)
	assert.Equal(t, []string{"truck", "route"}, b.Rules.Domains[0].Keywords)

	require.Len(t, b.Strategies.Strategies, 1)
	d := b.Strategies.Strategies[0]
	assert.Equal(t, problem.StrategyIterative, d.Strategy)
	assert.Equal(t, problem.RiskLow, d.RiskLevel)
	assert.InDelta(t, 1.1, d.TimeFactor, 1e-9)
	assert.Equal(t, []problem.Strategy{problem.StrategyIterative}, b.Strategies.TypeStrategies[0].Strategies)

	require.Len(t, b.Knowledge, 1)
	assert.Equal(t, "Load trucks heaviest first.", b.Knowledge[0].Content)

	// The loaded rules build a working analyzer.
	a, err := structure.NewAnalyzer(b.Rules, nil)
	require.NoError(t, err)
	ps := a.Analyze("Forecast how many truck routes we need")
	assert.Equal(t, problem.TypePrediction, ps.Type)
	assert.Equal(t, "logistics", ps.Domain)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		errText string
	}{
		{
			name:    "malformed yaml",
			content: "patterns: [unterminated",
			errText: "parsing catalog",
		},
		{
			name: "unknown problem type",
			content: `
rules:
  type_triggers:
    - type: optimization
      phrases: [optimize]
`,
			wantErr: problem.ErrInvalidProblemType,
		},
		{
			name: "strategy catalog without iterative",
			content: `
strategies:
  strategies:
    - strategy: analytical
      steps: [Think]
      time_factor: 1
      risk_level: LOW
      success_probability: 0.8
`,
			errText: "iterative",
		},
		{
			name: "bad risk level",
			content: `
strategies:
  strategies:
    - strategy: iterative
      steps: [Loop]
      time_factor: 1
      risk_level: EXTREME
      success_probability: 0.8
`,
			wantErr: problem.ErrInvalidRiskLevel,
		},
		{
			name: "pattern without tags",
			content: `
patterns:
  entries:
    - id: bare
      category: structural
`,
			errText: "tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "catalog.yaml", tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err) || strings.Contains(err.Error(), "opening"))

	big := writeFile(t, "big.yaml", "# "+strings.Repeat("x", maxCatalogFileSize))
	_, err = Load(big)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLoadKnowledge(t *testing.T) {
	path := writeFile(t, "seed.yaml", `
entries:
  - id: a
    domain: business
    content: Price anchors perception.
    source: handbook
  - domain: general
    content: Sleep on big decisions.
`)

	entries, err := LoadKnowledge(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "handbook", entries[0].Source)
	assert.Equal(t, "", entries[1].ID)
	assert.Equal(t, "Sleep on big decisions.", entries[1].Content)

	_, err = LoadKnowledge(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
