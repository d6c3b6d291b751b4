// Package store implements the session, feedback and adaptive pattern
// collaborators.
//
// Two backends are provided:
//   - BadgerStore: durable, embedded BadgerDB. Sessions may carry a TTL.
//   - MemoryStore: process memory on top of go-cache. Used for one-shot CLI runs
//     and tests.
//
// Both satisfy the solver's SessionStore and the learning package's FeedbackLog
// and PatternStore interfaces.
package store

import (
	"errors"
	"sort"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

// ErrEmptyKey indicates a write without an id.
var ErrEmptyKey = errors.New("key cannot be empty")

// filterPatterns keeps patterns whose domain or problem type matches, sorted by
// success rate descending then id, truncated to limit when limit > 0.
func filterPatterns(all []learning.AdaptivePattern, domain string, problemType problem.Type, limit int) []learning.AdaptivePattern {
	out := make([]learning.AdaptivePattern, 0)
	for _, p := range all {
		if (domain != "" && p.Domain == domain) || (problemType != "" && p.ProblemType == problemType) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SuccessRate != out[j].SuccessRate {
			return out[i].SuccessRate > out[j].SuccessRate
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
