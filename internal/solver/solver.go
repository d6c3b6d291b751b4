// Package solver runs the four-stage problem-solving pipeline and persists
// each run as a session.
//
// A solve call analyzes the text, matches the structure against the pattern
// catalog, generates ranked solution approaches and integrates knowledge and
// learned patterns, strictly in that order. Each stage consumes only the
// previous stage's output.
//
// Usage:
//
//	s, err := solver.New(store.NewMemoryStore(time.Hour), logger,
//		solver.WithKnowledge(kb),
//		solver.WithPatternStore(patternStore),
//	)
//	result, err := s.SolveProblem(ctx, "Maximize revenue subject to a budget", "")
package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fyrsmithlabs/problemsolver/internal/catalog"
	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/logging"
	"github.com/fyrsmithlabs/problemsolver/internal/patterns"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"github.com/fyrsmithlabs/problemsolver/internal/session"
	"github.com/fyrsmithlabs/problemsolver/internal/strategy"
	"github.com/fyrsmithlabs/problemsolver/internal/structure"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentationName is the tracer name used for solver spans.
const InstrumentationName = "github.com/fyrsmithlabs/problemsolver/internal/solver"

// SessionIDPrefix prefixes generated session ids.
const SessionIDPrefix = "sess_"

// Stage names used for spans and metrics.
const (
	StageAnalyze   = "analyze"
	StageMatch     = "match"
	StageGenerate  = "generate"
	StageIntegrate = "integrate"
)

// CollaboratorSessions labels session store failures.
const CollaboratorSessions = "sessions"

var (
	// ErrNilSessionStore indicates New was called without a session store.
	ErrNilSessionStore = errors.New("session store cannot be nil")

	// ErrEmptySessionID indicates a lookup without a session id.
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// ErrSessionConflict indicates a session id reused for a different problem.
	ErrSessionConflict = errors.New("session id already belongs to a different problem")

	// ErrSessionNotFound indicates no session is stored under the id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrApproachNotFound indicates the session has no approach with the id.
	ErrApproachNotFound = errors.New("approach not found")

	// ErrInvalidInput is recorded on failed sessions whose text cannot be analyzed.
	ErrInvalidInput = errors.New("problem text is empty or not valid UTF-8")

	// ErrStageFailed is recorded on spans of stages that fell back to defaults.
	ErrStageFailed = errors.New("pipeline stage failed")
)

// SolverResult is the persisted outcome of one solve run.
type SolverResult = session.Record

// SessionStore persists solver results keyed by session id.
// GetSession returns (nil, nil) when the session does not exist.
type SessionStore interface {
	UpsertSession(ctx context.Context, id string, rec *SolverResult) error
	GetSession(ctx context.Context, id string) (*SolverResult, error)
	ListSessions(ctx context.Context) ([]*SolverResult, error)
}

// Option configures a Solver.
type Option func(*options)

type options struct {
	bundle       *catalog.Bundle
	threshold    float64
	maxMatches   int
	maxSolutions int
	knowledge    learning.KnowledgeStore
	patterns     learning.PatternStore
	feedback     learning.FeedbackLog
	registerer   prometheus.Registerer
	tracer       trace.Tracer
	now          func() time.Time
}

// WithCatalog replaces the built-in rule, pattern and strategy tables.
func WithCatalog(b *catalog.Bundle) Option {
	return func(o *options) { o.bundle = b }
}

// WithMatching sets the similarity threshold and match cap. Zero keeps the default.
func WithMatching(threshold float64, maxMatches int) Option {
	return func(o *options) {
		o.threshold = threshold
		o.maxMatches = maxMatches
	}
}

// WithMaxSolutions caps the number of generated approaches.
func WithMaxSolutions(n int) Option {
	return func(o *options) { o.maxSolutions = n }
}

// WithKnowledge sets the builtin knowledge collaborator.
func WithKnowledge(k learning.KnowledgeStore) Option {
	return func(o *options) { o.knowledge = k }
}

// WithPatternStore sets the adaptive pattern collaborator.
func WithPatternStore(p learning.PatternStore) Option {
	return func(o *options) { o.patterns = p }
}

// WithFeedbackLog sets the feedback log.
func WithFeedbackLog(f learning.FeedbackLog) Option {
	return func(o *options) { o.feedback = f }
}

// WithRegisterer registers solver metrics on reg. Without it metrics are
// collected but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracer overrides the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Solver orchestrates the pipeline. It holds no per-call state and is safe for
// concurrent use; the session store provides per-session atomic upsert.
type Solver struct {
	analyzer  *structure.Analyzer
	matcher   *patterns.Matcher
	generator *strategy.Generator
	bridge    *learning.Bridge
	sessions  SessionStore
	patterns  learning.PatternStore
	metrics   *metrics
	tracer    trace.Tracer
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a Solver.
func New(sessions SessionStore, logger *zap.Logger, opts ...Option) (*Solver, error) {
	if sessions == nil {
		return nil, ErrNilSessionStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bundle == nil {
		o.bundle = catalog.Defaults()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(InstrumentationName)
	}

	analyzer, err := structure.NewAnalyzer(o.bundle.Rules, logger.Named("analyzer"))
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	matcher, err := patterns.NewMatcher(patterns.Config{
		Catalog:             o.bundle.Patterns,
		SimilarityThreshold: o.threshold,
		MaxMatches:          o.maxMatches,
	}, logger.Named("matcher"))
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}
	generator, err := strategy.NewGenerator(strategy.Config{
		Catalog:      o.bundle.Strategies,
		MaxSolutions: o.maxSolutions,
	}, logger.Named("generator"))
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	m := newMetrics(o.registerer)
	bridge := learning.NewBridge(learning.Config{
		Knowledge: o.knowledge,
		Patterns:  o.patterns,
		Feedback:  o.feedback,
		OnCollaboratorError: func(name string, _ error) {
			m.collaboratorErrors.WithLabelValues(name).Inc()
		},
		Now: o.now,
	}, logger.Named("learning"))

	return &Solver{
		analyzer:  analyzer,
		matcher:   matcher,
		generator: generator,
		bridge:    bridge,
		sessions:  sessions,
		patterns:  o.patterns,
		metrics:   m,
		tracer:    o.tracer,
		now:       o.now,
		logger:    logger,
	}, nil
}

// NewSessionID returns a fresh, unique session id.
func NewSessionID() string {
	return SessionIDPrefix + uuid.NewString()
}

// SolveProblem runs the pipeline on text and persists the result under
// sessionID, generating one when empty.
//
// It always returns a result unless the session id is already bound to a
// different problem. Text that is empty or not valid UTF-8 yields a failed
// result. Persistence and collaborator failures are logged and never returned.
func (s *Solver) SolveProblem(ctx context.Context, text, sessionID string) (*SolverResult, error) {
	start := s.now()
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	ctx, span := s.tracer.Start(ctx, "solver.solve",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()
	ctx = withSessionID(ctx, sessionID)

	rec := &SolverResult{
		SessionID:      sessionID,
		Status:         session.StatusActive,
		Problem:        problem.Empty(strings.ToValidUTF8(text, "")),
		Solutions:      []problem.SolutionApproach{},
		PatternMatches: []problem.PatternMatch{},
		Learning:       emptyLearning(),
		CreatedAt:      start.UTC(),
	}

	valid := utf8.ValidString(text) && strings.TrimSpace(text) != ""
	if valid {
		s.stage(ctx, StageAnalyze, func(context.Context) {
			rec.Problem = s.analyzer.Analyze(text)
		})
	}
	span.SetAttributes(attribute.String("problem.id", rec.Problem.ProblemID))
	ctx = logging.WithProblemID(ctx, rec.Problem.ProblemID)

	if err := s.checkConflict(ctx, sessionID, rec.Problem.ProblemID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !valid {
		rec.Status = session.StatusFailed
		rec.Error = ErrInvalidInput.Error()
		s.finish(ctx, rec, start)
		span.SetStatus(codes.Error, rec.Error)
		return rec, nil
	}

	s.stage(ctx, StageMatch, func(context.Context) {
		rec.PatternMatches = s.matcher.FindMatches(rec.Problem)
	})
	s.stage(ctx, StageGenerate, func(context.Context) {
		rec.Solutions = s.generator.Generate(rec.Problem, rec.PatternMatches)
	})
	s.stage(ctx, StageIntegrate, func(ctx context.Context) {
		rec.Learning = s.bridge.Integrate(ctx, rec.Problem, rec.Solutions)
	})

	rec.Status = session.StatusCompleted
	s.finish(ctx, rec, start)
	s.learnFromSession(ctx, rec)

	s.logger.Info("problem solved", append(logging.ContextFields(ctx),
		zap.String("problem_type", string(rec.Problem.Type)),
		zap.String("domain", rec.Problem.Domain),
		zap.Int("pattern_matches", len(rec.PatternMatches)),
		zap.Int("solutions", len(rec.Solutions)),
		zap.Duration("processing_time", rec.ProcessingTime))...)

	return rec, nil
}

// checkConflict rejects a session id already persisted for another problem.
// A store failure is treated as "no existing session".
func (s *Solver) checkConflict(ctx context.Context, sessionID, problemID string) error {
	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		s.collaboratorFailed(ctx, CollaboratorSessions, err)
		return nil
	}
	if existing != nil && existing.Problem.ProblemID != problemID {
		return fmt.Errorf("%w: session %s holds %s, got %s",
			ErrSessionConflict, sessionID, existing.Problem.ProblemID, problemID)
	}
	return nil
}

// finish stamps completion, persists the record and updates metrics.
func (s *Solver) finish(ctx context.Context, rec *SolverResult, start time.Time) {
	end := s.now()
	rec.CompletedAt = end.UTC()
	rec.ProcessingTime = end.Sub(start)

	s.metrics.sessions.WithLabelValues(string(rec.Status)).Inc()
	s.metrics.solutions.Add(float64(len(rec.Solutions)))

	if err := s.sessions.UpsertSession(ctx, rec.SessionID, rec); err != nil {
		s.collaboratorFailed(ctx, CollaboratorSessions, err)
	}
}

// stage runs fn in its own span. A panic in fn is recovered: whatever fn had
// not yet assigned keeps its default and the pipeline continues.
func (s *Solver) stage(ctx context.Context, name string, fn func(context.Context)) {
	ctx, span := s.tracer.Start(ctx, "solver."+name)
	defer span.End()

	timer := prometheus.NewTimer(s.metrics.stageDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("%w: %s: %v", ErrStageFailed, name, r)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.stageFailures.WithLabelValues(name).Inc()
		s.logger.Warn("stage failed, using default output", append(logging.ContextFields(ctx),
			zap.String("stage", name),
			zap.Any("panic", r))...)
	}()

	fn(ctx)
}

func (s *Solver) collaboratorFailed(ctx context.Context, name string, err error, fields ...zap.Field) {
	s.metrics.collaboratorErrors.WithLabelValues(name).Inc()
	fields = append(logging.ContextFields(ctx), fields...)
	s.logger.Warn("collaborator unavailable, continuing",
		append(fields, zap.String("collaborator", name), zap.Error(err))...)
}

// withSessionID adds the session id to ctx for log correlation. Ids that are
// unsafe to log are left out.
func withSessionID(ctx context.Context, sessionID string) context.Context {
	if logging.ValidateID(sessionID, "session id") != nil {
		return ctx
	}
	return logging.WithSessionID(ctx, sessionID)
}

func emptyLearning() learning.LearningResult {
	return learning.LearningResult{
		BuiltinMatches:      []learning.KnowledgeHit{},
		AdaptiveMatches:     []learning.AdaptivePattern{},
		CrossDomainInsights: []string{},
		Recommendations:     []string{},
	}
}
