package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

var (
	// ErrInvalidFeedback indicates a feedback record failed validation.
	ErrInvalidFeedback = errors.New("invalid feedback")

	// ErrEmptyApproachID indicates feedback was given without an approach id.
	ErrEmptyApproachID = errors.New("approach id cannot be empty")
)

// KnowledgeHit is one builtin knowledge entry matched by a term.
type KnowledgeHit struct {
	Term       string  `json:"term"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// AdaptivePattern is a learned association between a problem shape and a strategy.
type AdaptivePattern struct {
	ID          string       `json:"id"`
	PatternType string       `json:"pattern_type"`
	Domain      string       `json:"domain"`
	ProblemType problem.Type `json:"problem_type"`
	PatternData string       `json:"pattern_data"`
	SuccessRate float64      `json:"success_rate"`
	Samples     int          `json:"samples"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Feedback is user feedback on one approach.
type Feedback struct {
	Rating     float64  `json:"rating"`
	Success    bool     `json:"success"`
	Challenges []string `json:"challenges,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// Validate checks the rating is within [0,1].
func (f Feedback) Validate() error {
	if f.Rating < 0 || f.Rating > 1 {
		return fmt.Errorf("%w: rating %.2f outside [0,1]", ErrInvalidFeedback, f.Rating)
	}
	return nil
}

// FeedbackRecord is an immutable, appended feedback entry.
type FeedbackRecord struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	ApproachID string           `json:"approach_id"`
	Strategy   problem.Strategy `json:"strategy"`
	Feedback
	CreatedAt time.Time `json:"created_at"`
}

// LearningResult is the output of Integrate.
type LearningResult struct {
	BuiltinMatches      []KnowledgeHit    `json:"builtin_knowledge_matches"`
	AdaptiveMatches     []AdaptivePattern `json:"adaptive_pattern_matches"`
	CrossDomainInsights []string          `json:"cross_domain_insights"`
	Recommendations     []string          `json:"recommendations"`
}

// Insights summarizes a feedback history.
type Insights struct {
	Total        int              `json:"total"`
	HighRated    int              `json:"high_rated"`
	LowRated     int              `json:"low_rated"`
	TopStrategy  problem.Strategy `json:"top_strategy,omitempty"`
	TopChallenge string           `json:"top_challenge,omitempty"`
}

// KnowledgeStore answers builtin knowledge lookups.
type KnowledgeStore interface {
	QueryByTerm(ctx context.Context, term string, limit int) ([]KnowledgeHit, error)
}

// PatternStore holds adaptive patterns.
type PatternStore interface {
	QueryByDomainOrType(ctx context.Context, domain string, problemType problem.Type, limit int) ([]AdaptivePattern, error)
	GetPattern(ctx context.Context, id string) (*AdaptivePattern, error)
	UpsertPattern(ctx context.Context, p AdaptivePattern) error
}

// PatternUpdater applies a read-modify-write to one pattern atomically. fn
// receives nil when the pattern does not exist and may run more than once.
type PatternUpdater interface {
	UpdatePattern(ctx context.Context, id string, fn func(existing *AdaptivePattern) AdaptivePattern) error
}

// FeedbackLog is an append-only feedback store.
type FeedbackLog interface {
	Append(ctx context.Context, rec FeedbackRecord) error
	List(ctx context.Context, sessionID string) ([]FeedbackRecord, error)
}
