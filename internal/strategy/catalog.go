package strategy

import (
	"fmt"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

// Definition describes one reasoning strategy.
type Definition struct {
	Strategy           problem.Strategy  `koanf:"strategy"`
	Description        string            `koanf:"description"`
	Steps              []string          `koanf:"steps"`
	SuitableDomains    []string          `koanf:"suitable_domains"`
	SuitableTypes      []problem.Type    `koanf:"suitable_types"`
	TimeFactor         float64           `koanf:"time_factor"`
	RiskLevel          problem.RiskLevel `koanf:"risk_level"`
	SuccessProbability float64           `koanf:"success_probability"`
	Resources          []string          `koanf:"resources"`

	// HandlesConstraints marks strategies that earn the constrained-problem bonus.
	HandlesConstraints bool `koanf:"handles_constraints"`

	// Outcome is the expected outcome; {objective} is replaced by the first objective.
	Outcome string `koanf:"outcome"`
}

// TypeMapping lists the strategies selected for a problem type.
type TypeMapping struct {
	Type       problem.Type       `koanf:"type"`
	Strategies []problem.Strategy `koanf:"strategies"`
}

// DomainMapping lists the strategies selected for a domain.
type DomainMapping struct {
	Domain     string             `koanf:"domain"`
	Strategies []problem.Strategy `koanf:"strategies"`
}

// DomainResources lists resources every approach in a domain needs.
type DomainResources struct {
	Domain    string   `koanf:"domain"`
	Resources []string `koanf:"resources"`
}

// VerbSubstitution replaces the leading verb of a step.
type VerbSubstitution struct {
	From string `koanf:"from"`
	To   string `koanf:"to"`
}

// DomainVerbs is the verb substitution table for one domain.
type DomainVerbs struct {
	Domain        string             `koanf:"domain"`
	Substitutions []VerbSubstitution `koanf:"substitutions"`
}

// StepResource adds Resource when a step mentions Keyword.
type StepResource struct {
	Keyword  string `koanf:"keyword"`
	Resource string `koanf:"resource"`
}

// Catalog is the versioned strategy configuration.
type Catalog struct {
	Version          string             `koanf:"version"`
	Strategies       []Definition       `koanf:"strategies"`
	TypeStrategies   []TypeMapping      `koanf:"type_strategies"`
	DomainStrategies []DomainMapping    `koanf:"domain_strategies"`
	DomainResources  []DomainResources  `koanf:"domain_resources"`
	DomainVerbs      []DomainVerbs      `koanf:"domain_verbs"`
	StepResources    []StepResource     `koanf:"step_resources"`
	ComplexExtras    []string           `koanf:"complex_extras"`
	ComplexStrategy  []problem.Strategy `koanf:"complex_strategies"`
	SimpleStrategy   []problem.Strategy `koanf:"simple_strategies"`
}

// Validate checks the catalog is usable. The iterative strategy must be present.
func (c Catalog) Validate() error {
	hasIterative := false
	for _, d := range c.Strategies {
		if !d.Strategy.Valid() || d.Strategy == problem.StrategyHybrid {
			return fmt.Errorf("strategy %q: %w", d.Strategy, problem.ErrInvalidStrategy)
		}
		if len(d.Steps) == 0 {
			return fmt.Errorf("strategy %s: at least one step is required", d.Strategy)
		}
		if d.TimeFactor <= 0 {
			return fmt.Errorf("strategy %s: time_factor must be positive", d.Strategy)
		}
		if !d.RiskLevel.Valid() {
			return fmt.Errorf("strategy %s: %w", d.Strategy, problem.ErrInvalidRiskLevel)
		}
		if d.SuccessProbability < 0 || d.SuccessProbability > 1 {
			return fmt.Errorf("strategy %s: success_probability must be between 0 and 1", d.Strategy)
		}
		if d.Strategy == problem.StrategyIterative {
			hasIterative = true
		}
	}
	if !hasIterative {
		return fmt.Errorf("catalog must define the %s strategy", problem.StrategyIterative)
	}
	return nil
}

// DefaultCatalog returns the built-in strategy catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: "1",
		Strategies: []Definition{
			{
				Strategy:    problem.StrategyAnalytical,
				Description: "Break the problem into measurable parts and reason about them quantitatively",
				Steps: []string{
					"Define the problem and its measurable variables",
					"Collect relevant data",
					"Analyze relationships between components",
					"Apply quantitative methods to evaluate options",
					"Validate conclusions against the goal",
				},
				SuitableDomains:    []string{"science", "business", "technology", "engineering"},
				SuitableTypes:      []problem.Type{problem.TypeAnalytical, problem.TypeOptimization, problem.TypePrediction},
				TimeFactor:         1.2,
				RiskLevel:          problem.RiskLow,
				SuccessProbability: 0.8,
				Resources:          []string{"data sources", "analysis tools"},
				HandlesConstraints: true,
				Outcome:            "An evidence-backed answer to: {objective}",
			},
			{
				Strategy:    problem.StrategyCreative,
				Description: "Generate unconventional options by reframing the problem",
				Steps: []string{
					"Reframe the problem from several perspectives",
					"Brainstorm unconventional ideas",
					"Combine ideas into candidate concepts",
					"Apply analogies from other domains",
					"Select the concept that best serves the goal",
				},
				SuitableDomains:    []string{"education", "business", "technology"},
				SuitableTypes:      []problem.Type{problem.TypeCreative, problem.TypeDesign},
				TimeFactor:         1.0,
				RiskLevel:          problem.RiskHigh,
				SuccessProbability: 0.6,
				Resources:          []string{"brainstorming space", "diverse perspectives"},
				Outcome:            "A novel concept for: {objective}",
			},
			{
				Strategy:    problem.StrategyExperimental,
				Description: "Form hypotheses and test them with controlled experiments",
				Steps: []string{
					"Form a hypothesis about the problem",
					"Design a controlled test",
					"Build a minimal prototype",
					"Test and measure outcomes",
					"Apply findings to refine the approach",
				},
				SuitableDomains:    []string{"science", "technology", "healthcare", "engineering"},
				SuitableTypes:      []problem.Type{problem.TypeResearchBased, problem.TypeTroubleshooting, problem.TypePrediction},
				TimeFactor:         1.5,
				RiskLevel:          problem.RiskMedium,
				SuccessProbability: 0.7,
				Resources:          []string{"test environment", "measurement instruments"},
				Outcome:            "A validated approach to: {objective}",
			},
			{
				Strategy:    problem.StrategySystematic,
				Description: "Decompose the problem and solve the parts in dependency order",
				Steps: []string{
					"Decompose the problem into subproblems",
					"Order subproblems by dependency",
					"Solve each subproblem in sequence",
					"Apply checks at every stage",
					"Integrate partial results toward the goal",
				},
				SuitableDomains:    []string{"engineering", "technology", "healthcare"},
				SuitableTypes:      []problem.Type{problem.TypeIntegration, problem.TypeTroubleshooting, problem.TypeClassification},
				TimeFactor:         1.3,
				RiskLevel:          problem.RiskLow,
				SuccessProbability: 0.85,
				Resources:          []string{"project plan", "checklists"},
				HandlesConstraints: true,
				Outcome:            "A complete, verified solution for: {objective}",
			},
			{
				Strategy:    problem.StrategyIntuitive,
				Description: "Use experience and pattern recognition to reach a quick answer",
				Steps: []string{
					"Review the problem as a whole",
					"Identify the most promising direction quickly",
					"Apply experience from similar situations",
					"Sketch a first solution",
					"Check the solution against the goal",
				},
				SuitableDomains:    []string{"business", "healthcare"},
				SuitableTypes:      []problem.Type{problem.TypeDecisionMaking, problem.TypeCreative},
				TimeFactor:         0.5,
				RiskLevel:          problem.RiskMedium,
				SuccessProbability: 0.55,
				Resources:          []string{"domain experience"},
				Outcome:            "A fast first answer to: {objective}",
			},
			{
				Strategy:    problem.StrategyCollaborative,
				Description: "Bring stakeholders together to design and agree on a solution",
				Steps: []string{
					"Identify stakeholders affected by the problem",
					"Gather perspectives and constraints",
					"Facilitate joint solution design",
					"Apply consensus criteria to choose options",
					"Assign ownership for reaching the goal",
				},
				SuitableDomains:    []string{"business", "education", "healthcare"},
				SuitableTypes:      []problem.Type{problem.TypeDecisionMaking, problem.TypeIntegration},
				TimeFactor:         1.4,
				RiskLevel:          problem.RiskMedium,
				SuccessProbability: 0.75,
				Resources:          []string{"stakeholder time", "facilitator"},
				Outcome:            "A shared, agreed plan for: {objective}",
			},
			{
				Strategy:    problem.StrategyIterative,
				Description: "Deliver a first version early and improve it in short cycles",
				Steps: []string{
					"Build a first version addressing the problem core",
					"Test it against the goal",
					"Collect feedback and data",
					"Apply improvements",
					"Repeat until results stabilize",
				},
				SuitableDomains:    []string{"technology", "engineering", "education", "business"},
				SuitableTypes:      []problem.Type{problem.TypeOptimization, problem.TypeDesign},
				TimeFactor:         1.1,
				RiskLevel:          problem.RiskLow,
				SuccessProbability: 0.75,
				Resources:          []string{"feedback loop", "version tracking"},
				Outcome:            "A progressively improved solution for: {objective}",
			},
		},
		TypeStrategies: []TypeMapping{
			{Type: problem.TypeAnalytical, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategySystematic}},
			{Type: problem.TypeCreative, Strategies: []problem.Strategy{problem.StrategyCreative, problem.StrategyIntuitive, problem.StrategyCollaborative}},
			{Type: problem.TypeResearchBased, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategyExperimental, problem.StrategySystematic}},
			{Type: problem.TypeOptimization, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategyIterative, problem.StrategyExperimental}},
			{Type: problem.TypeDesign, Strategies: []problem.Strategy{problem.StrategyCreative, problem.StrategySystematic, problem.StrategyIterative}},
			{Type: problem.TypeDecisionMaking, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategyCollaborative, problem.StrategyIntuitive}},
			{Type: problem.TypeTroubleshooting, Strategies: []problem.Strategy{problem.StrategySystematic, problem.StrategyExperimental, problem.StrategyAnalytical}},
			{Type: problem.TypePrediction, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategyExperimental}},
			{Type: problem.TypeClassification, Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategySystematic}},
			{Type: problem.TypeIntegration, Strategies: []problem.Strategy{problem.StrategySystematic, problem.StrategyCollaborative, problem.StrategyIterative}},
		},
		DomainStrategies: []DomainMapping{
			{Domain: "technology", Strategies: []problem.Strategy{problem.StrategySystematic, problem.StrategyExperimental}},
			{Domain: "science", Strategies: []problem.Strategy{problem.StrategyExperimental, problem.StrategyAnalytical}},
			{Domain: "business", Strategies: []problem.Strategy{problem.StrategyAnalytical, problem.StrategyCollaborative}},
			{Domain: "education", Strategies: []problem.Strategy{problem.StrategyCollaborative, problem.StrategyCreative}},
			{Domain: "healthcare", Strategies: []problem.Strategy{problem.StrategySystematic, problem.StrategyCollaborative}},
			{Domain: "engineering", Strategies: []problem.Strategy{problem.StrategySystematic, problem.StrategyAnalytical}},
		},
		DomainResources: []DomainResources{
			{Domain: "technology", Resources: []string{"development environment"}},
			{Domain: "science", Resources: []string{"laboratory access"}},
			{Domain: "business", Resources: []string{"financial data"}},
			{Domain: "education", Resources: []string{"learning materials"}},
			{Domain: "healthcare", Resources: []string{"clinical guidelines"}},
			{Domain: "engineering", Resources: []string{"engineering specifications"}},
		},
		DomainVerbs: []DomainVerbs{
			{Domain: "technology", Substitutions: []VerbSubstitution{{From: "Build", To: "Implement"}, {From: "Test", To: "Benchmark"}}},
			{Domain: "science", Substitutions: []VerbSubstitution{{From: "Build", To: "Construct"}, {From: "Test", To: "Experimentally verify"}}},
			{Domain: "business", Substitutions: []VerbSubstitution{{From: "Analyze", To: "Assess"}, {From: "Test", To: "Pilot"}}},
			{Domain: "education", Substitutions: []VerbSubstitution{{From: "Build", To: "Draft"}, {From: "Test", To: "Trial"}}},
			{Domain: "healthcare", Substitutions: []VerbSubstitution{{From: "Review", To: "Audit"}, {From: "Test", To: "Clinically evaluate"}}},
			{Domain: "engineering", Substitutions: []VerbSubstitution{{From: "Build", To: "Fabricate"}, {From: "Test", To: "Load-test"}}},
		},
		StepResources: []StepResource{
			{Keyword: "data", Resource: "data collection tools"},
			{Keyword: "model", Resource: "modeling software"},
			{Keyword: "prototype", Resource: "prototyping materials"},
		},
		ComplexExtras:   []string{"expert consultation", "additional time", "specialized tools"},
		ComplexStrategy: []problem.Strategy{problem.StrategySystematic, problem.StrategyCollaborative},
		SimpleStrategy:  []problem.Strategy{problem.StrategyAnalytical, problem.StrategyIntuitive},
	}
}
