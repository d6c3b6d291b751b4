package solver

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

// Phase names of an implementation guide.
const (
	PhasePreparation    = "preparation"
	PhaseImplementation = "implementation"
	PhaseValidation     = "validation"
)

// Phase is an ordered checklist.
type Phase struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// ImplementationGuide expands one approach into phases, risk mitigations and
// success metrics.
type ImplementationGuide struct {
	SessionID       string            `json:"session_id"`
	ApproachID      string            `json:"approach_id"`
	Strategy        problem.Strategy  `json:"strategy"`
	Description     string            `json:"description"`
	Phases          []Phase           `json:"phases"`
	ResourcesNeeded []string          `json:"resources_needed"`
	RiskLevel       problem.RiskLevel `json:"risk_level"`
	RiskMitigation  []string          `json:"risk_mitigation"`
	SuccessMetrics  []string          `json:"success_metrics"`
	EstimatedTime   int               `json:"estimated_time"`
}

var riskMitigations = map[problem.RiskLevel][]string{
	problem.RiskLow: {
		"Track progress against each step",
		"Record decisions so they can be revisited",
	},
	problem.RiskMedium: {
		"Set checkpoints with explicit go/no-go criteria",
		"Keep a fallback approach ready",
		"Review intermediate results with stakeholders",
	},
	problem.RiskHigh: {
		"Pilot on a small scope before full rollout",
		"Define stop-loss limits on time and budget",
		"Keep a fallback approach ready",
		"Schedule frequent stakeholder reviews",
	},
}

// GetSolutionDetails builds the implementation guide for an approach of a
// stored session.
func (s *Solver) GetSolutionDetails(ctx context.Context, sessionID, approachID string) (*ImplementationGuide, error) {
	rec, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	approach, ok := rec.Approach(approachID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in session %s", ErrApproachNotFound, approachID, sessionID)
	}
	return BuildGuide(sessionID, approach), nil
}

// BuildGuide derives an ImplementationGuide from an approach. The first third of
// the steps (at least one) prepares, the last third (at least one, when more
// than one step remains) validates, and the rest implements.
func BuildGuide(sessionID string, a problem.SolutionApproach) *ImplementationGuide {
	return &ImplementationGuide{
		SessionID:       sessionID,
		ApproachID:      a.ApproachID,
		Strategy:        a.Strategy,
		Description:     a.Description,
		Phases:          phases(a),
		ResourcesNeeded: append([]string{}, a.ResourcesNeeded...),
		RiskLevel:       a.RiskLevel,
		RiskMitigation:  append([]string{}, riskMitigations[a.RiskLevel]...),
		SuccessMetrics:  successMetrics(a),
		EstimatedTime:   a.EstimatedTime,
	}
}

func phases(a problem.SolutionApproach) []Phase {
	n := len(a.Steps)
	edge := n / 3
	if edge < 1 {
		edge = 1
	}
	prep := make([]string, 0, edge+1)
	impl := make([]string, 0, n)
	val := make([]string, 0, edge+1)

	for i, step := range a.Steps {
		switch {
		case i < edge:
			prep = append(prep, step)
		case n-i <= edge && i > 0:
			val = append(val, step)
		default:
			impl = append(impl, step)
		}
	}

	if len(a.ResourcesNeeded) > 0 {
		prep = append(prep, "Secure resources: "+strings.Join(a.ResourcesNeeded, ", "))
	}
	if a.ExpectedOutcome != "" {
		val = append(val, "Confirm the outcome: "+a.ExpectedOutcome)
	}

	return []Phase{
		{Name: PhasePreparation, Tasks: prep},
		{Name: PhaseImplementation, Tasks: impl},
		{Name: PhaseValidation, Tasks: val},
	}
}

func successMetrics(a problem.SolutionApproach) []string {
	metrics := make([]string, 0, 4)
	if a.EstimatedTime > 0 {
		metrics = append(metrics, fmt.Sprintf("Complete within %d minutes", a.EstimatedTime))
		if n := len(a.Steps); n > 0 {
			metrics = append(metrics, fmt.Sprintf("Average about %d minutes per step across %d steps",
				(a.EstimatedTime+n-1)/n, n))
		}
	}
	if a.ExpectedOutcome != "" {
		metrics = append(metrics, "Outcome achieved: "+a.ExpectedOutcome)
	}
	metrics = append(metrics, fmt.Sprintf("Success probability of at least %.0f%% holds in review", a.SuccessProbability*100))
	return metrics
}
