package solver

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/problemsolver/internal/session"
)

// Statistics aggregates persisted sessions.
type Statistics struct {
	TotalSessions      int `json:"total_sessions"`
	ProblemsAnalyzed   int `json:"problems_analyzed"`
	SolutionsGenerated int `json:"solutions_generated"`

	// AverageSolutionsPerProblem is SolutionsGenerated over TotalSessions.
	AverageSolutionsPerProblem float64 `json:"average_solutions_per_problem"`

	ByStatus map[session.Status]int `json:"by_status"`
}

// GetStatistics aggregates over every persisted session. ProblemsAnalyzed counts
// distinct problem ids among sessions whose analysis completed.
func (s *Solver) GetStatistics(ctx context.Context) (Statistics, error) {
	records, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("listing sessions: %w", err)
	}

	stats := Statistics{ByStatus: make(map[session.Status]int)}
	problems := make(map[string]bool)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		stats.TotalSessions++
		stats.SolutionsGenerated += len(rec.Solutions)
		stats.ByStatus[rec.Status]++
		if rec.Status == session.StatusCompleted {
			problems[rec.Problem.ProblemID] = true
		}
	}
	stats.ProblemsAnalyzed = len(problems)
	if stats.TotalSessions > 0 {
		stats.AverageSolutionsPerProblem = float64(stats.SolutionsGenerated) / float64(stats.TotalSessions)
	}
	return stats, nil
}
