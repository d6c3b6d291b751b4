package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"go.uber.org/zap"
)

const (
	// HybridSuccessDivisor discounts the summed success probability of two parents.
	// 2.2 rather than 2 is a tuning value carried over unchanged; see DESIGN.md.
	HybridSuccessDivisor = 2.2

	// MaxHybrids is the maximum number of hybrids synthesized per run.
	MaxHybrids = 2

	// MaxSelectedStrategies caps strategy selection.
	MaxSelectedStrategies = 5

	// HybridParentPool is how many top-ranked approaches hybrids are built from.
	HybridParentPool = 3

	// HybridTimeFactor scales the summed parent time of a hybrid.
	HybridTimeFactor = 1.2

	// MinEstimatedTime is the floor, in minutes, before the strategy time factor.
	MinEstimatedTime = 30

	// MinutesPerComplexity converts a complexity score into minutes.
	MinutesPerComplexity = 240

	// ComplexAbove, SimpleBelow and VeryComplexAbove are complexity thresholds.
	ComplexAbove     = 0.7
	SimpleBelow      = 0.3
	VeryComplexAbove = 0.8

	baseConfidence       = 0.5
	domainBonus          = 0.2
	patternWeight        = 0.2
	riskAdjustment       = 0.1
	constraintBonus      = 0.1
	minConfidence        = 0.1
	maxConfidence        = 1.0
	defaultObjective     = "a workable solution"
	objectivePlaceholder = "{objective}"
)

// Fixed integration steps appended to every hybrid.
const (
	StepIntegrate = "Integrate results from both approaches"
	StepValidate  = "Validate combined solution"
)

// Config configures a Generator.
type Config struct {
	Catalog      Catalog
	MaxSolutions int
}

// Generator produces ranked SolutionApproaches for a problem.
//
// Generator is read-only after construction and safe for concurrent use.
type Generator struct {
	defs         map[problem.Strategy]Definition
	catalog      Catalog
	maxSolutions int
	logger       *zap.Logger
}

// NewGenerator creates a Generator. A zero Catalog selects DefaultCatalog.
func NewGenerator(cfg Config, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Catalog.Strategies == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy catalog: %w", err)
	}
	if cfg.MaxSolutions <= 0 || cfg.MaxSolutions > problem.MaxSolutions {
		cfg.MaxSolutions = problem.MaxSolutions
	}

	defs := make(map[problem.Strategy]Definition, len(cfg.Catalog.Strategies))
	for _, d := range cfg.Catalog.Strategies {
		defs[d.Strategy] = d
	}

	return &Generator{
		defs:         defs,
		catalog:      cfg.Catalog,
		maxSolutions: cfg.MaxSolutions,
		logger:       logger,
	}, nil
}

// Generate selects strategies for ps, builds and scores one approach per strategy,
// synthesizes hybrids from the best of them and returns the merged list sorted by
// RankScore descending. The result always contains at least the iterative approach.
func (g *Generator) Generate(ps problem.Structure, matches []problem.PatternMatch) []problem.SolutionApproach {
	selected := g.Select(ps)

	solutions := make([]problem.SolutionApproach, 0, len(selected)+MaxHybrids)
	for _, s := range selected {
		solutions = append(solutions, g.build(ps, matches, g.defs[s]))
	}
	sortByRank(solutions)

	hybrids := g.hybrids(ps, solutions)
	solutions = append(solutions, hybrids...)
	sortByRank(solutions)

	if len(solutions) > g.maxSolutions {
		solutions = solutions[:g.maxSolutions]
	}

	g.logger.Debug("solutions generated",
		zap.String("problem_id", ps.ProblemID),
		zap.Int("strategies", len(selected)),
		zap.Int("hybrids", len(hybrids)),
		zap.Int("solutions", len(solutions)))

	return solutions
}

// Select returns the strategies for ps: type mapping, then domain mapping, then
// complexity extras, deduplicated, capped at MaxSelectedStrategies. Iterative is
// always included.
func (g *Generator) Select(ps problem.Structure) []problem.Strategy {
	candidates := make([]problem.Strategy, 0, 8)
	for _, m := range g.catalog.TypeStrategies {
		if m.Type == ps.Type {
			candidates = append(candidates, m.Strategies...)
		}
	}
	for _, m := range g.catalog.DomainStrategies {
		if m.Domain == ps.Domain {
			candidates = append(candidates, m.Strategies...)
		}
	}
	switch {
	case ps.ComplexityScore > ComplexAbove:
		candidates = append(candidates, g.catalog.ComplexStrategy...)
	case ps.ComplexityScore < SimpleBelow:
		candidates = append(candidates, g.catalog.SimpleStrategy...)
	}

	seen := make(map[problem.Strategy]bool, len(candidates))
	selected := make([]problem.Strategy, 0, MaxSelectedStrategies)
	for _, s := range candidates {
		if seen[s] {
			continue
		}
		if _, ok := g.defs[s]; !ok {
			continue
		}
		seen[s] = true
		selected = append(selected, s)
	}
	if len(selected) > MaxSelectedStrategies {
		selected = selected[:MaxSelectedStrategies]
	}

	if !containsStrategy(selected, problem.StrategyIterative) {
		if len(selected) == MaxSelectedStrategies {
			selected[len(selected)-1] = problem.StrategyIterative
		} else {
			selected = append(selected, problem.StrategyIterative)
		}
	}
	return selected
}

func (g *Generator) build(ps problem.Structure, matches []problem.PatternMatch, def Definition) problem.SolutionApproach {
	steps := make([]string, len(def.Steps))
	for i, step := range def.Steps {
		steps[i] = g.adaptStep(step, ps, matches)
	}

	return problem.SolutionApproach{
		ApproachID:         fmt.Sprintf("%s_%s", def.Strategy, ps.ProblemID),
		Strategy:           def.Strategy,
		Description:        describe(def, ps),
		Steps:              steps,
		ResourcesNeeded:    g.resources(def, ps, steps),
		ExpectedOutcome:    strings.ReplaceAll(def.Outcome, objectivePlaceholder, firstObjective(ps)),
		ConfidenceScore:    Confidence(def, ps, matches),
		EstimatedTime:      EstimatedTime(ps.ComplexityScore, def.TimeFactor),
		RiskLevel:          def.RiskLevel,
		SuccessProbability: problem.Clamp(def.SuccessProbability, 0, 1),
	}
}

// adaptStep fills in the problem and goal, applies the domain verb table and names
// the top pattern in "apply" steps.
func (g *Generator) adaptStep(step string, ps problem.Structure, matches []problem.PatternMatch) string {
	if len(ps.KeyComponents) > 0 {
		step = strings.Replace(step, "the problem", "the "+ps.KeyComponents[0]+" problem", 1)
	}
	if len(ps.Objectives) > 0 {
		step = strings.Replace(step, "the goal", "the goal ("+strings.ToLower(ps.Objectives[0])+")", 1)
	}

	for _, dv := range g.catalog.DomainVerbs {
		if dv.Domain != ps.Domain {
			continue
		}
		for _, sub := range dv.Substitutions {
			if strings.HasPrefix(step, sub.From+" ") {
				step = sub.To + step[len(sub.From):]
				break
			}
		}
	}

	if len(matches) > 0 && strings.Contains(strings.ToLower(step), "apply") {
		name := matches[0].Name
		if name == "" {
			name = matches[0].PatternID
		}
		step += " using the " + name + " pattern"
	}
	return step
}

func (g *Generator) resources(def Definition, ps problem.Structure, steps []string) []string {
	out := make([]string, 0, problem.MaxResources)
	add := func(items ...string) {
		for _, r := range items {
			if len(out) >= problem.MaxResources {
				return
			}
			if !containsString(out, r) {
				out = append(out, r)
			}
		}
	}

	add(def.Resources...)
	for _, dr := range g.catalog.DomainResources {
		if dr.Domain == ps.Domain {
			add(dr.Resources...)
		}
	}
	if ps.ComplexityScore > ComplexAbove {
		add(g.catalog.ComplexExtras...)
	}
	for _, sr := range g.catalog.StepResources {
		for _, step := range steps {
			if strings.Contains(strings.ToLower(step), sr.Keyword) {
				add(sr.Resource)
				break
			}
		}
	}
	return out
}

// Confidence scores how well def fits ps, clamped to [0.1, 1].
func Confidence(def Definition, ps problem.Structure, matches []problem.PatternMatch) float64 {
	score := baseConfidence
	if containsString(def.SuitableDomains, ps.Domain) {
		score += domainBonus
	}

	best := 0.0
	for _, m := range matches {
		if m.SimilarityScore > best {
			best = m.SimilarityScore
		}
	}
	score += patternWeight * best

	if ps.ComplexityScore > VeryComplexAbove {
		switch def.RiskLevel {
		case problem.RiskLow:
			score += riskAdjustment
		case problem.RiskHigh:
			score -= riskAdjustment
		}
	}

	if len(ps.Constraints) > 0 && def.HandlesConstraints {
		score += constraintBonus
	}

	return round3(problem.Clamp(score, minConfidence, maxConfidence))
}

// EstimatedTime returns round(max(30, complexity*240) * timeFactor) minutes.
func EstimatedTime(complexity, timeFactor float64) int {
	base := math.Max(MinEstimatedTime, complexity*MinutesPerComplexity)
	return int(math.Round(base * timeFactor))
}

// hybrids pairs adjacent approaches among the top HybridParentPool of ranked.
func (g *Generator) hybrids(ps problem.Structure, ranked []problem.SolutionApproach) []problem.SolutionApproach {
	pool := ranked
	if len(pool) > HybridParentPool {
		pool = pool[:HybridParentPool]
	}

	out := make([]problem.SolutionApproach, 0, MaxHybrids)
	for i := 0; i+1 < len(pool) && len(out) < MaxHybrids; i++ {
		out = append(out, Hybrid(ps.ProblemID, pool[i], pool[i+1]))
	}
	return out
}

// Hybrid combines two approaches into one.
func Hybrid(problemID string, a, b problem.SolutionApproach) problem.SolutionApproach {
	steps := make([]string, 0, 8)
	steps = append(steps, firstN(a.Steps, 3)...)
	steps = append(steps, firstN(b.Steps, 3)...)
	steps = append(steps, StepIntegrate, StepValidate)

	resources := make([]string, 0, problem.MaxHybridResources)
	for _, r := range append(append([]string(nil), a.ResourcesNeeded...), b.ResourcesNeeded...) {
		if len(resources) >= problem.MaxHybridResources {
			break
		}
		if !containsString(resources, r) {
			resources = append(resources, r)
		}
	}

	return problem.SolutionApproach{
		ApproachID:         fmt.Sprintf("hybrid_%s_%s_%s", a.Strategy, b.Strategy, problemID),
		Strategy:           problem.StrategyHybrid,
		Description:        fmt.Sprintf("Hybrid of the %s and %s strategies", a.Strategy, b.Strategy),
		Steps:              steps,
		ResourcesNeeded:    resources,
		ExpectedOutcome:    fmt.Sprintf("Combined result of %s and %s: %s", a.Strategy, b.Strategy, a.ExpectedOutcome),
		ConfidenceScore:    round3(problem.Clamp((a.ConfidenceScore+b.ConfidenceScore)/2, 0, 1)),
		EstimatedTime:      int(math.Round(HybridTimeFactor * float64(a.EstimatedTime+b.EstimatedTime))),
		RiskLevel:          problem.MaxRisk(a.RiskLevel, b.RiskLevel),
		SuccessProbability: round3(problem.Clamp((a.SuccessProbability+b.SuccessProbability)/HybridSuccessDivisor, 0, 1)),
		ParentStrategies:   []problem.Strategy{a.Strategy, b.Strategy},
	}
}

func describe(def Definition, ps problem.Structure) string {
	return fmt.Sprintf("%s approach for a %s problem in the %s domain: %s",
		capitalize(string(def.Strategy)), strings.ToLower(string(ps.Type)), ps.Domain, def.Description)
}

func firstObjective(ps problem.Structure) string {
	if len(ps.Objectives) == 0 {
		return defaultObjective
	}
	return ps.Objectives[0]
}

func sortByRank(s []problem.SolutionApproach) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].RankScore() > s[j].RankScore()
	})
}

func firstN(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func containsString(items []string, s string) bool {
	for _, i := range items {
		if i == s {
			return true
		}
	}
	return false
}

func containsStrategy(items []problem.Strategy, s problem.Strategy) bool {
	for _, i := range items {
		if i == s {
			return true
		}
	}
	return false
}
