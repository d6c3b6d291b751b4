// Package problem defines the data model shared by the solver pipeline stages.
//
// A Structure is extracted once from free text by the analyzer, PatternMatch
// values are produced by the cross-domain matcher, and SolutionApproach values
// are produced by the strategy generator. Closed sets (problem type, strategy,
// risk level, confidence level) are string-backed types with Valid methods so
// they survive a JSON round trip unchanged.
//
// Every bounded collection has a Max* constant; producers truncate to it.
// ProblemID is a pure function of the normalized text:
//
//	problem.NewProblemID("Optimize  the CACHE") == problem.NewProblemID("optimize the cache")
package problem
