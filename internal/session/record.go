// Package session defines the persisted record of one solve run.
package session

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/problemsolver/internal/learning"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

// ErrInvalidStatus indicates a status outside the closed set.
var ErrInvalidStatus = errors.New("invalid session status")

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further pipeline stage will touch the session.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the full result of one solve run, persisted keyed by SessionID.
type Record struct {
	SessionID      string                     `json:"session_id"`
	Status         Status                     `json:"status"`
	Error          string                     `json:"error,omitempty"`
	Problem        problem.Structure          `json:"problem"`
	Solutions      []problem.SolutionApproach `json:"solutions"`
	PatternMatches []problem.PatternMatch     `json:"pattern_matches"`
	Learning       learning.LearningResult    `json:"learning"`
	CreatedAt      time.Time                  `json:"created_at"`
	CompletedAt    time.Time                  `json:"completed_at"`
	ProcessingTime time.Duration              `json:"processing_time"`
}

// Approach returns the solution with the given id.
func (r *Record) Approach(approachID string) (problem.SolutionApproach, bool) {
	for _, s := range r.Solutions {
		if s.ApproachID == approachID {
			return s, true
		}
	}
	return problem.SolutionApproach{}, false
}
