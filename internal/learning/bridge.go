package learning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/logging"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// KeywordQueries is how many top keywords are looked up in the knowledge store.
	KeywordQueries = 5

	// MaxBuiltinMatches caps builtin knowledge hits.
	MaxBuiltinMatches = 10

	// MaxAdaptiveMatches caps adaptive pattern hits.
	MaxAdaptiveMatches = 5

	// BuiltinConfidence is the fixed confidence assigned to builtin knowledge hits.
	BuiltinConfidence = 0.8

	// HighConfidence marks solutions used for the complexity/time insight.
	HighConfidence = 0.7

	// HighRating and LowRating split feedback for ExtractInsights.
	HighRating = 0.7
	LowRating  = 0.3

	minDistinctStrategies = 3
	minMeanConfidence     = 0.6
	minBuiltinMatches     = 3
	minAdaptiveMatches    = 2
	riskyComplexity       = 0.8
)

// Collaborator names reported to the error hook.
const (
	CollaboratorKnowledge = "knowledge"
	CollaboratorPatterns  = "patterns"
	CollaboratorFeedback  = "feedback"
)

// Config configures a Bridge. Nil stores are treated as returning no results.
type Config struct {
	Knowledge KnowledgeStore
	Patterns  PatternStore
	Feedback  FeedbackLog

	// OnCollaboratorError is called whenever a collaborator call fails.
	OnCollaboratorError func(collaborator string, err error)

	// Now overrides the clock.
	Now func() time.Time
}

// Bridge connects a solve run to the knowledge and learning collaborators.
type Bridge struct {
	knowledge KnowledgeStore
	patterns  PatternStore
	feedback  FeedbackLog
	onError   func(string, error)
	now       func() time.Time
	logger    *zap.Logger
}

// NewBridge creates a Bridge.
func NewBridge(cfg Config, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OnCollaboratorError == nil {
		cfg.OnCollaboratorError = func(string, error) {}
	}
	return &Bridge{
		knowledge: cfg.Knowledge,
		patterns:  cfg.Patterns,
		feedback:  cfg.Feedback,
		onError:   cfg.OnCollaboratorError,
		now:       cfg.Now,
		logger:    logger,
	}
}

// Integrate queries the collaborators for ps and derives insights and
// recommendations. Collaborator failures are logged and count as zero results.
func (b *Bridge) Integrate(ctx context.Context, ps problem.Structure, solutions []problem.SolutionApproach) LearningResult {
	builtin := b.builtinMatches(ctx, ps)
	adaptive := b.adaptiveMatches(ctx, ps)

	return LearningResult{
		BuiltinMatches:      builtin,
		AdaptiveMatches:     adaptive,
		CrossDomainInsights: crossDomainInsights(ps, solutions, adaptive),
		Recommendations:     recommendations(ps, solutions, builtin, adaptive),
	}
}

func (b *Bridge) builtinMatches(ctx context.Context, ps problem.Structure) []KnowledgeHit {
	hits := make([]KnowledgeHit, 0)
	if b.knowledge == nil {
		return hits
	}

	keywords := ps.Keywords
	if len(keywords) > KeywordQueries {
		keywords = keywords[:KeywordQueries]
	}

	seen := make(map[string]bool)
	for _, term := range keywords {
		if len(hits) >= MaxBuiltinMatches {
			break
		}
		results, err := b.knowledge.QueryByTerm(ctx, term, MaxBuiltinMatches-len(hits))
		if err != nil {
			b.collaboratorFailed(ctx, CollaboratorKnowledge, err, zap.String("term", term))
			continue
		}
		for _, r := range results {
			if len(hits) >= MaxBuiltinMatches {
				break
			}
			if seen[r.Content] {
				continue
			}
			seen[r.Content] = true
			r.Term = term
			r.Confidence = BuiltinConfidence
			hits = append(hits, r)
		}
	}
	return hits
}

func (b *Bridge) adaptiveMatches(ctx context.Context, ps problem.Structure) []AdaptivePattern {
	if b.patterns == nil {
		return []AdaptivePattern{}
	}
	results, err := b.patterns.QueryByDomainOrType(ctx, ps.Domain, ps.Type, MaxAdaptiveMatches)
	if err != nil {
		b.collaboratorFailed(ctx, CollaboratorPatterns, err, zap.String("domain", ps.Domain))
		return []AdaptivePattern{}
	}
	if len(results) > MaxAdaptiveMatches {
		results = results[:MaxAdaptiveMatches]
	}
	if results == nil {
		results = []AdaptivePattern{}
	}
	return results
}

// crossDomainInsights emits an insight for every generated strategy that adaptive
// patterns show in use in another domain, plus a complexity/time correlation over
// high-confidence solutions.
func crossDomainInsights(ps problem.Structure, solutions []problem.SolutionApproach, adaptive []AdaptivePattern) []string {
	insights := make([]string, 0)

	seen := make(map[problem.Strategy]bool)
	for _, s := range solutions {
		if seen[s.Strategy] {
			continue
		}
		seen[s.Strategy] = true

		domains := map[string]bool{ps.Domain: true}
		for _, p := range adaptive {
			if p.PatternType == string(s.Strategy) && p.Domain != "" {
				domains[p.Domain] = true
			}
		}
		if len(domains) < 2 {
			continue
		}
		names := make([]string, 0, len(domains))
		for d := range domains {
			names = append(names, d)
		}
		sort.Strings(names)
		insights = append(insights, fmt.Sprintf("The %s strategy is shared across domains: %s",
			s.Strategy, strings.Join(names, ", ")))
	}

	total, count := 0, 0
	for _, s := range solutions {
		if s.ConfidenceScore > HighConfidence {
			total += s.EstimatedTime
			count++
		}
	}
	if count > 0 {
		insights = append(insights, fmt.Sprintf(
			"Complexity %.2f corresponds to an average estimated time of %.0f minutes across %d high-confidence solutions",
			ps.ComplexityScore, float64(total)/float64(count), count))
	}
	return insights
}

func recommendations(ps problem.Structure, solutions []problem.SolutionApproach, builtin []KnowledgeHit, adaptive []AdaptivePattern) []string {
	recs := make([]string, 0)

	strategies := make(map[problem.Strategy]bool)
	sum := 0.0
	high := 0
	for _, s := range solutions {
		strategies[s.Strategy] = true
		sum += s.ConfidenceScore
		if s.RiskLevel == problem.RiskHigh {
			high++
		}
	}

	if len(strategies) < minDistinctStrategies {
		recs = append(recs, "Consider diversifying the solution strategies to cover more reasoning approaches")
	}
	if len(solutions) == 0 || sum/float64(len(solutions)) < minMeanConfidence {
		recs = append(recs, "Gather more domain knowledge to raise confidence in the generated solutions")
	}
	if len(builtin) < minBuiltinMatches {
		recs = append(recs, fmt.Sprintf("Expand the knowledge base for the %s domain", ps.Domain))
	}
	if len(adaptive) < minAdaptiveMatches {
		recs = append(recs, "Collect more solved problems so adaptive patterns can be learned")
	}
	if ps.ComplexityScore > riskyComplexity && len(solutions) > 0 && high*2 > len(solutions) {
		recs = append(recs, "Develop lower-risk strategies for highly complex problems")
	}
	return recs
}

// RecordFeedback appends an immutable feedback record. Stored solutions are never
// modified.
func (b *Bridge) RecordFeedback(ctx context.Context, sessionID, approachID string, fb Feedback) (FeedbackRecord, error) {
	if approachID == "" {
		return FeedbackRecord{}, ErrEmptyApproachID
	}
	if err := fb.Validate(); err != nil {
		return FeedbackRecord{}, err
	}

	rec := FeedbackRecord{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		ApproachID: approachID,
		Strategy:   StrategyFromApproachID(approachID),
		Feedback:   fb,
		CreatedAt:  b.now().UTC(),
	}
	rec.Challenges = append([]string(nil), fb.Challenges...)

	if b.feedback == nil {
		return rec, nil
	}
	if err := b.feedback.Append(ctx, rec); err != nil {
		b.onError(CollaboratorFeedback, err)
		return FeedbackRecord{}, fmt.Errorf("appending feedback: %w", err)
	}

	b.logger.Info("feedback recorded", append(logging.ContextFields(ctx),
		zap.String("session_id", sessionID),
		zap.String("approach_id", approachID),
		zap.Float64("rating", fb.Rating))...)
	return rec, nil
}

// History returns the feedback recorded for a session.
func (b *Bridge) History(ctx context.Context, sessionID string) ([]FeedbackRecord, error) {
	if b.feedback == nil {
		return []FeedbackRecord{}, nil
	}
	records, err := b.feedback.List(ctx, sessionID)
	if err != nil {
		b.onError(CollaboratorFeedback, err)
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return records, nil
}

// ExtractInsights finds the most common strategy among records rated above
// HighRating and the most common challenge among records rated below LowRating.
// Ties go to the lexically smallest value.
func ExtractInsights(history []FeedbackRecord) Insights {
	strategies := make(map[string]int)
	challenges := make(map[string]int)
	out := Insights{Total: len(history)}

	for _, rec := range history {
		switch {
		case rec.Rating > HighRating:
			out.HighRated++
			strategies[string(rec.Strategy)]++
		case rec.Rating < LowRating:
			out.LowRated++
			for _, c := range rec.Challenges {
				challenges[c]++
			}
		}
	}

	out.TopStrategy = problem.Strategy(mostCommon(strategies))
	out.TopChallenge = mostCommon(challenges)
	return out
}

// StrategyFromApproachID returns the strategy prefix of an approach id.
func StrategyFromApproachID(approachID string) problem.Strategy {
	prefix, _, _ := strings.Cut(approachID, "_")
	s := problem.Strategy(prefix)
	if !s.Valid() {
		return ""
	}
	return s
}

func mostCommon(counts map[string]int) string {
	best, bestCount := "", 0
	for k, c := range counts {
		if k == "" {
			continue
		}
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

func (b *Bridge) collaboratorFailed(ctx context.Context, name string, err error, fields ...zap.Field) {
	b.onError(name, err)
	fields = append(logging.ContextFields(ctx), fields...)
	b.logger.Warn("collaborator unavailable, continuing without results",
		append(fields, zap.String("collaborator", name), zap.Error(err))...)
}
