package problem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Collection caps applied by every producer of these types.
const (
	MaxKeyComponents   = 15
	MaxRelationships   = 20
	MaxConstraints     = 10
	MaxObjectives      = 5
	MaxKeywords        = 15
	MaxResources       = 8
	MaxHybridResources = 10
	MaxPatternMatches  = 10
	MaxSolutions       = 8
)

// DomainGeneral is used when no domain keyword table matches.
const DomainGeneral = "general"

// Common errors for data model validation.
var (
	ErrInvalidProblemType = errors.New("invalid problem type")
	ErrInvalidStrategy    = errors.New("invalid strategy")
	ErrInvalidRiskLevel   = errors.New("invalid risk level")
)

// Type classifies a problem. The set is closed.
type Type string

const (
	TypeAnalytical      Type = "ANALYTICAL"
	TypeCreative        Type = "CREATIVE"
	TypeResearchBased   Type = "RESEARCH_BASED"
	TypeOptimization    Type = "OPTIMIZATION"
	TypeDesign          Type = "DESIGN"
	TypeDecisionMaking  Type = "DECISION_MAKING"
	TypeTroubleshooting Type = "TROUBLESHOOTING"
	TypePrediction      Type = "PREDICTION"
	TypeClassification  Type = "CLASSIFICATION"
	TypeIntegration     Type = "INTEGRATION"
	TypeUnknown         Type = "UNKNOWN"
)

// AllTypes lists every problem type except UNKNOWN in declaration order.
func AllTypes() []Type {
	return []Type{
		TypeAnalytical, TypeCreative, TypeResearchBased, TypeOptimization, TypeDesign,
		TypeDecisionMaking, TypeTroubleshooting, TypePrediction, TypeClassification,
		TypeIntegration,
	}
}

// Valid reports whether t is a member of the closed set.
func (t Type) Valid() bool {
	if t == TypeUnknown {
		return true
	}
	for _, known := range AllTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// StructuralTag is a tag from the fixed structural pattern vocabulary.
type StructuralTag string

const (
	TagConditionalLogic StructuralTag = "conditional_logic"
	TagIterationPattern StructuralTag = "iteration_pattern"
	TagComparison       StructuralTag = "comparison_pattern"
	TagSequential       StructuralTag = "sequential_pattern"
	TagAlternative      StructuralTag = "alternative_pattern"
	TagCausal           StructuralTag = "causal_pattern"
	TagQuantitative     StructuralTag = "quantitative_pattern"
)

// Relationship is a (source, kind, target) triple between two extracted components.
type Relationship struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// Context holds the derived signals of a problem text.
type Context struct {
	Length               int      `json:"length"`
	WordCount            int      `json:"word_count"`
	UrgencyIndicators    []string `json:"urgency_indicators"`
	DomainIndicators     []string `json:"domain_indicators"`
	ComplexityIndicators []string `json:"complexity_indicators"`
	HasNumbers           bool     `json:"has_numbers"`
	HasQuestions         bool     `json:"has_questions"`
}

// Structure is the normalized, typed representation of a problem text.
// It is created once per solve call and is not modified afterwards.
type Structure struct {
	ProblemID          string          `json:"problem_id"`
	OriginalText       string          `json:"original_text"`
	Type               Type            `json:"problem_type"`
	KeyComponents      []string        `json:"key_components"`
	Relationships      []Relationship  `json:"relationships"`
	Constraints        []string        `json:"constraints"`
	Objectives         []string        `json:"objectives"`
	Context            Context         `json:"context"`
	ComplexityScore    float64         `json:"complexity_score"`
	Domain             string          `json:"domain"`
	Keywords           []string        `json:"keywords"`
	StructuralPatterns []StructuralTag `json:"structural_patterns"`
}

// HasPattern reports whether the structure carries the given structural tag.
func (s *Structure) HasPattern(tag StructuralTag) bool {
	for _, p := range s.StructuralPatterns {
		if p == tag {
			return true
		}
	}
	return false
}

// Empty returns an UNKNOWN structure with empty collections for text.
func Empty(text string) Structure {
	return Structure{
		ProblemID:          NewProblemID(text),
		OriginalText:       text,
		Type:               TypeUnknown,
		KeyComponents:      []string{},
		Relationships:      []Relationship{},
		Constraints:        []string{},
		Objectives:         []string{},
		Context:            Context{Length: len(text), WordCount: len(strings.Fields(text))},
		Domain:             DomainGeneral,
		Keywords:           []string{},
		StructuralPatterns: []StructuralTag{},
	}
}

// NormalizeText lower-cases text, collapses whitespace runs and trims it.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// NewProblemID derives a stable identifier from the normalized text.
func NewProblemID(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return "prob_" + hex.EncodeToString(sum[:])[:16]
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
