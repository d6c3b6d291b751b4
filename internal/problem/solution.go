package problem

// Strategy names a reasoning approach. The set is closed.
type Strategy string

const (
	StrategyAnalytical    Strategy = "analytical"
	StrategyCreative      Strategy = "creative"
	StrategyExperimental  Strategy = "experimental"
	StrategySystematic    Strategy = "systematic"
	StrategyIntuitive     Strategy = "intuitive"
	StrategyCollaborative Strategy = "collaborative"
	StrategyIterative     Strategy = "iterative"
	StrategyHybrid        Strategy = "hybrid"
)

// BaseStrategies lists the non-hybrid strategies in declaration order.
func BaseStrategies() []Strategy {
	return []Strategy{
		StrategyAnalytical, StrategyCreative, StrategyExperimental, StrategySystematic,
		StrategyIntuitive, StrategyCollaborative, StrategyIterative,
	}
}

// Valid reports whether s is a member of the closed set.
func (s Strategy) Valid() bool {
	if s == StrategyHybrid {
		return true
	}
	for _, known := range BaseStrategies() {
		if s == known {
			return true
		}
	}
	return false
}

// RiskLevel is ordered LOW < MEDIUM < HIGH.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Rank returns the position of r in the LOW < MEDIUM < HIGH ordering, or -1.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// Valid reports whether r is a member of the closed set.
func (r RiskLevel) Valid() bool {
	return r.Rank() >= 0
}

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ConfidenceLevel is a discretization of a continuous score.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceVeryLow  ConfidenceLevel = "VERY_LOW"
)

// ConfidenceLevelFor buckets a score: >=0.9 VERY_HIGH, >=0.8 HIGH, >=0.7 MEDIUM,
// >=0.5 LOW, otherwise VERY_LOW.
func ConfidenceLevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.9:
		return ConfidenceVeryHigh
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	case score >= 0.5:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// PatternMatch is a catalog entry found similar to a problem.
type PatternMatch struct {
	PatternID        string          `json:"pattern_id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	SimilarityScore  float64         `json:"similarity_score"`
	SourceDomains    []string        `json:"source_domains"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level"`
	AdaptationNeeded []string        `json:"adaptation_needed"`
	SolutionTemplate string          `json:"solution_template"`
}

// SolutionApproach is one scored candidate solution. It is not modified once scored;
// feedback is recorded separately.
type SolutionApproach struct {
	ApproachID         string    `json:"approach_id"`
	Strategy           Strategy  `json:"strategy"`
	Description        string    `json:"description"`
	Steps              []string  `json:"steps"`
	ResourcesNeeded    []string  `json:"resources_needed"`
	ExpectedOutcome    string    `json:"expected_outcome"`
	ConfidenceScore    float64   `json:"confidence_score"`
	EstimatedTime      int       `json:"estimated_time"`
	RiskLevel          RiskLevel `json:"risk_level"`
	SuccessProbability float64   `json:"success_probability"`

	// ParentStrategies is set for hybrids only.
	ParentStrategies []Strategy `json:"parent_strategies,omitempty"`
}

// RankScore is the product used to order solutions.
func (s *SolutionApproach) RankScore() float64 {
	return s.ConfidenceScore * s.SuccessProbability
}
