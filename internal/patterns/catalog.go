package patterns

import (
	"errors"
	"fmt"
)

// Pattern categories.
const (
	CategoryOptimization = "optimization"
	CategoryStructural   = "structural"
	CategoryDecision     = "decision"
)

// Synthesized problem tags.
const (
	TagOptimization       = "optimization"
	TagDecisionMaking     = "decision_making"
	TagPrediction         = "prediction"
	TagConstrained        = "constrained_problem"
	TagComplexSystem      = "complex_system"
	TagModerateComplexity = "moderate_complexity"
	TagSimpleProblem      = "simple_problem"
	TagHierarchy          = "hierarchy"
	TagNetwork            = "network"
	TagFeedbackLoop       = "feedback_loop"
)

// KeyPatterns earn a similarity bonus when textually related to an entry tag.
var KeyPatterns = []string{TagOptimization, TagDecisionMaking, TagHierarchy, TagNetwork, TagFeedbackLoop}

// Entry is one domain-agnostic pattern in the catalog.
type Entry struct {
	ID               string   `koanf:"id"`
	Name             string   `koanf:"name"`
	Category         string   `koanf:"category"`
	SourceDomains    []string `koanf:"source_domains"`
	Tags             []string `koanf:"tags"`
	SolutionTemplate string   `koanf:"solution_template"`
}

// Catalog is the versioned pattern library. Entry order is significant: it breaks
// similarity ties.
type Catalog struct {
	Version string  `koanf:"version"`
	Entries []Entry `koanf:"entries"`
}

// Validate checks that every entry has an id, a category and at least one tag.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Entries))
	for i, e := range c.Entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d: %w", i, errors.New("id cannot be empty"))
		}
		if seen[e.ID] {
			return fmt.Errorf("entry %s: duplicate id", e.ID)
		}
		seen[e.ID] = true
		if e.Category == "" {
			return fmt.Errorf("entry %s: category cannot be empty", e.ID)
		}
		if len(e.Tags) == 0 {
			return fmt.Errorf("entry %s: at least one tag is required", e.ID)
		}
	}
	return nil
}

// DefaultCatalog returns the built-in pattern catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Version: "1",
		Entries: []Entry{
			{
				ID:               "resource_allocation",
				Name:             "Resource Allocation",
				Category:         CategoryOptimization,
				SourceDomains:    []string{"business", "engineering", "technology"},
				Tags:             []string{TagOptimization, TagConstrained, "related_to", TagSimpleProblem},
				SolutionTemplate: "Rank competing demands by marginal value and allocate limited resources greedily, then check the constraints",
			},
			{
				ID:               "multi_objective_tradeoff",
				Name:             "Multi-Objective Trade-off",
				Category:         CategoryOptimization,
				SourceDomains:    []string{"business", "engineering"},
				Tags:             []string{TagOptimization, TagConstrained, "comparison_pattern", "related_to", TagModerateComplexity},
				SolutionTemplate: "Map the Pareto frontier of the objectives and pick the point that best matches stakeholder weights",
			},
			{
				ID:               "iterative_refinement",
				Name:             "Iterative Refinement",
				Category:         CategoryOptimization,
				SourceDomains:    []string{"technology", "science", "engineering"},
				Tags:             []string{TagOptimization, "iteration_pattern", TagFeedbackLoop, "related_to"},
				SolutionTemplate: "Start from a baseline, measure, adjust one parameter at a time and repeat until improvements flatten",
			},
			{
				ID:               "bottleneck_elimination",
				Name:             "Bottleneck Elimination",
				Category:         CategoryOptimization,
				SourceDomains:    []string{"technology", "business", "engineering"},
				Tags:             []string{TagOptimization, "causal_pattern", "sequential_pattern", "related_to"},
				SolutionTemplate: "Trace the flow end to end, find the slowest stage and relieve it before touching anything else",
			},
			{
				ID:               "hierarchical_decomposition",
				Name:             "Hierarchical Decomposition",
				Category:         CategoryStructural,
				SourceDomains:    []string{"technology", "engineering", "business"},
				Tags:             []string{TagHierarchy, "sequential_pattern", "related_to", TagComplexSystem},
				SolutionTemplate: "Split the system into layers with narrow interfaces and solve each layer independently",
			},
			{
				ID:               "network_flow",
				Name:             "Network Flow",
				Category:         CategoryStructural,
				SourceDomains:    []string{"technology", "engineering", "science"},
				Tags:             []string{TagNetwork, "depends_on", "related_to", "quantitative_pattern"},
				SolutionTemplate: "Model entities as nodes and dependencies as capacitated edges, then compute the maximum flow",
			},
			{
				ID:               "feedback_control",
				Name:             "Feedback Control",
				Category:         CategoryStructural,
				SourceDomains:    []string{"engineering", "science", "healthcare"},
				Tags:             []string{TagFeedbackLoop, "causal_pattern", "affects", "related_to"},
				SolutionTemplate: "Measure the output, compare it with the target and feed the error back into the input",
			},
			{
				ID:               "weighted_criteria_decision",
				Name:             "Weighted Criteria Decision",
				Category:         CategoryDecision,
				SourceDomains:    []string{"business", "healthcare", "education"},
				Tags:             []string{TagDecisionMaking, "comparison_pattern", "alternative_pattern", "related_to"},
				SolutionTemplate: "List the alternatives, score each against weighted criteria and choose the highest total",
			},
			{
				ID:               "decision_under_constraints",
				Name:             "Decision Under Constraints",
				Category:         CategoryDecision,
				SourceDomains:    []string{"business", "technology"},
				Tags:             []string{TagDecisionMaking, TagConstrained, "related_to", TagSimpleProblem},
				SolutionTemplate: "Discard options that violate hard constraints, then choose among the rest by expected value",
			},
			{
				ID:               "forecast_based_planning",
				Name:             "Forecast-Based Planning",
				Category:         CategoryDecision,
				SourceDomains:    []string{"business", "science"},
				Tags:             []string{TagPrediction, "quantitative_pattern", "causal_pattern", "related_to"},
				SolutionTemplate: "Forecast the driving quantities, plan for the expected case and hedge for the extremes",
			},
		},
	}
}
