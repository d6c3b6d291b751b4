package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/logging"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"go.uber.org/zap"
)

// AdaptivePatternID names the pattern learned for a domain, problem type and strategy.
func AdaptivePatternID(domain string, t problem.Type, s problem.Strategy) string {
	return fmt.Sprintf("ap_%s_%s_%s", domain, strings.ToLower(string(t)), s)
}

// learnFromSession records the top approach as an adaptive pattern for the
// problem's domain and type. An existing pattern is left to feedback updates.
func (s *Solver) learnFromSession(ctx context.Context, rec *SolverResult) {
	if s.patterns == nil || len(rec.Solutions) == 0 {
		return
	}
	top := rec.Solutions[0]
	id := AdaptivePatternID(rec.Problem.Domain, rec.Problem.Type, top.Strategy)

	existing, err := s.patterns.GetPattern(ctx, id)
	if err != nil {
		s.collaboratorFailed(ctx, learning.CollaboratorPatterns, err, zap.String("pattern_id", id))
		return
	}
	if existing != nil {
		return
	}

	now := s.now().UTC()
	p := learning.AdaptivePattern{
		ID:          id,
		PatternType: string(top.Strategy),
		Domain:      rec.Problem.Domain,
		ProblemType: rec.Problem.Type,
		PatternData: top.Description,
		SuccessRate: top.SuccessProbability,
		Samples:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.patterns.UpsertPattern(ctx, p); err != nil {
		s.collaboratorFailed(ctx, learning.CollaboratorPatterns, err, zap.String("pattern_id", id))
		return
	}
	s.logger.Debug("adaptive pattern learned", append(logging.ContextFields(ctx),
		zap.String("pattern_id", id),
		zap.Float64("success_rate", p.SuccessRate))...)
}

// RecordFeedback validates that the session and approach exist, appends the
// feedback and folds its rating into the matching adaptive pattern.
func (s *Solver) RecordFeedback(ctx context.Context, sessionID, approachID string, fb learning.Feedback) (learning.FeedbackRecord, error) {
	ctx = withSessionID(ctx, sessionID)
	rec, err := s.lookup(ctx, sessionID)
	if err != nil {
		return learning.FeedbackRecord{}, err
	}
	approach, ok := rec.Approach(approachID)
	if !ok {
		return learning.FeedbackRecord{}, fmt.Errorf("%w: %s in session %s", ErrApproachNotFound, approachID, sessionID)
	}

	record, err := s.bridge.RecordFeedback(ctx, sessionID, approachID, fb)
	if err != nil {
		return learning.FeedbackRecord{}, err
	}
	s.updatePattern(ctx, rec, approach, fb.Rating)
	return record, nil
}

// updatePattern folds rating into the approach's pattern as an incremental mean.
// Stores that implement learning.PatternUpdater apply it atomically; otherwise
// the read and write are separate and the last concurrent writer wins.
func (s *Solver) updatePattern(ctx context.Context, rec *SolverResult, approach problem.SolutionApproach, rating float64) {
	if s.patterns == nil {
		return
	}
	id := AdaptivePatternID(rec.Problem.Domain, rec.Problem.Type, approach.Strategy)
	now := s.now().UTC()
	fold := func(existing *learning.AdaptivePattern) learning.AdaptivePattern {
		return foldRating(existing, id, rec.Problem, approach, rating, now)
	}

	if u, ok := s.patterns.(learning.PatternUpdater); ok {
		if err := u.UpdatePattern(ctx, id, fold); err != nil {
			s.collaboratorFailed(ctx, learning.CollaboratorPatterns, err, zap.String("pattern_id", id))
		}
		return
	}

	p, err := s.patterns.GetPattern(ctx, id)
	if err != nil {
		s.collaboratorFailed(ctx, learning.CollaboratorPatterns, err, zap.String("pattern_id", id))
		return
	}
	if err := s.patterns.UpsertPattern(ctx, fold(p)); err != nil {
		s.collaboratorFailed(ctx, learning.CollaboratorPatterns, err, zap.String("pattern_id", id))
	}
}

func foldRating(existing *learning.AdaptivePattern, id string, ps problem.Structure, approach problem.SolutionApproach, rating float64, now time.Time) learning.AdaptivePattern {
	p := learning.AdaptivePattern{
		ID:          id,
		PatternType: string(approach.Strategy),
		Domain:      ps.Domain,
		ProblemType: ps.Type,
		PatternData: approach.Description,
		CreatedAt:   now,
	}
	if existing != nil {
		p = *existing
	}
	p.Samples++
	p.SuccessRate += (rating - p.SuccessRate) / float64(p.Samples)
	p.SuccessRate = problem.Clamp(p.SuccessRate, 0, 1)
	p.UpdatedAt = now
	return p
}

// Feedback returns the feedback recorded for a session.
func (s *Solver) Feedback(ctx context.Context, sessionID string) ([]learning.FeedbackRecord, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	return s.bridge.History(ctx, sessionID)
}

// Insights summarizes a session's feedback.
func (s *Solver) Insights(ctx context.Context, sessionID string) (learning.Insights, error) {
	history, err := s.Feedback(ctx, sessionID)
	if err != nil {
		return learning.Insights{}, err
	}
	return learning.ExtractInsights(history), nil
}

// lookup loads a session, mapping absence to ErrSessionNotFound.
func (s *Solver) lookup(ctx context.Context, sessionID string) (*SolverResult, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	rec, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return rec, nil
}
