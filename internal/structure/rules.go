package structure

import (
	"github.com/fyrsmithlabs/problemsolver/internal/lexical"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
)

// TypeTrigger lists phrases whose occurrences vote for a problem type.
type TypeTrigger struct {
	Type    problem.Type `koanf:"type"`
	Phrases []string     `koanf:"phrases"`
}

// TypeTemplate is a regex that adds Rules.TemplateBonus to a type's score when it matches.
type TypeTemplate struct {
	Type    problem.Type `koanf:"type"`
	Pattern string       `koanf:"pattern"`
}

// DomainKeywords is the keyword table for one domain.
type DomainKeywords struct {
	Domain   string   `koanf:"domain"`
	Keywords []string `koanf:"keywords"`
}

// RelationPattern is a binary relation regex with two capture groups (source, target).
type RelationPattern struct {
	Kind    string `koanf:"kind"`
	Pattern string `koanf:"pattern"`
}

// ObjectiveCue maps coarse verb cues to a default objective.
type ObjectiveCue struct {
	Cues      []string `koanf:"cues"`
	Objective string   `koanf:"objective"`
}

// StructuralProbe tags a structure when its pattern matches the text.
type StructuralProbe struct {
	Tag     problem.StructuralTag `koanf:"tag"`
	Pattern string                `koanf:"pattern"`
}

// Rules is the versioned rule data the analyzer is built from.
// Declaration order is significant: it breaks ties in type and domain scoring.
type Rules struct {
	Version              string            `koanf:"version"`
	TypeTriggers         []TypeTrigger     `koanf:"type_triggers"`
	TypeTemplates        []TypeTemplate    `koanf:"type_templates"`
	TemplateBonus        int               `koanf:"template_bonus"`
	Domains              []DomainKeywords  `koanf:"domains"`
	RelationPatterns     []RelationPattern `koanf:"relation_patterns"`
	ConstraintPatterns   []string          `koanf:"constraint_patterns"`
	ObjectivePatterns    []string          `koanf:"objective_patterns"`
	DefaultObjectives    []ObjectiveCue    `koanf:"default_objectives"`
	UrgencyIndicators    []string          `koanf:"urgency_indicators"`
	ComplexityIndicators []string          `koanf:"complexity_indicators"`
	StructuralProbes     []StructuralProbe `koanf:"structural_probes"`
	MathPattern          string            `koanf:"math_pattern"`
	StopWords            []string          `koanf:"stop_words"`
}

// DefaultRules returns the built-in rule tables.
func DefaultRules() Rules {
	return Rules{
		Version: "1",
		TypeTriggers: []TypeTrigger{
			{Type: problem.TypeAnalytical, Phrases: []string{"analyze", "analyse", "calculate", "evaluate", "assess", "examine", "determine why"}},
			{Type: problem.TypeCreative, Phrases: []string{"creative", "innovative", "invent", "imagine", "brainstorm", "novel", "original idea"}},
			{Type: problem.TypeResearchBased, Phrases: []string{"research", "investigate", "study", "explore", "literature", "survey"}},
			{Type: problem.TypeOptimization, Phrases: []string{"optimize", "optimise", "maximize", "minimize", "improve", "most efficient", "reduce", "balance"}},
			{Type: problem.TypeDesign, Phrases: []string{"design", "create", "build", "architect", "develop", "construct"}},
			{Type: problem.TypeDecisionMaking, Phrases: []string{"decide", "choose", "select", "which option", "should we", "decision"}},
			{Type: problem.TypeTroubleshooting, Phrases: []string{"fix", "debug", "troubleshoot", "broken", "error", "not working", "fails", "failure"}},
			{Type: problem.TypePrediction, Phrases: []string{"predict", "forecast", "estimate", "project future", "anticipate", "will happen"}},
			{Type: problem.TypeClassification, Phrases: []string{"classify", "categorize", "categorise", "group into", "sort into", "label"}},
			{Type: problem.TypeIntegration, Phrases: []string{"integrate", "combine", "merge", "connect", "unify", "interoperate"}},
		},
		TypeTemplates: []TypeTemplate{
			{Type: problem.TypeOptimization, Pattern: `(?i)(maximize|minimize|optimize)\s+.+\s+(subject to|given|with)`},
			{Type: problem.TypeDecisionMaking, Pattern: `(?i)(should (i|we)|which)\s+.+\s+(or|versus|vs\.?)\s+`},
			{Type: problem.TypeTroubleshooting, Pattern: `(?i)(why (is|does|do)|what causes)\s+.+\s+(fail|break|crash|error|slow)`},
			{Type: problem.TypePrediction, Pattern: `(?i)(what will|how (much|many) will)\s+.+`},
			{Type: problem.TypeDesign, Pattern: `(?i)(design|build|create)\s+(a|an)\s+.+\s+that\s+`},
		},
		TemplateBonus: 2,
		Domains: []DomainKeywords{
			{Domain: "technology", Keywords: []string{"software", "computer", "algorithm", "code", "database", "network", "server", "cloud", "application", "app", "api", "data", "system", "latency", "cache"}},
			{Domain: "science", Keywords: []string{"experiment", "hypothesis", "theory", "research", "physics", "chemistry", "biology", "molecule", "energy", "measurement"}},
			{Domain: "business", Keywords: []string{"revenue", "profit", "budget", "market", "customer", "sales", "cost", "staff", "marketing", "investment", "strategy", "employees"}},
			{Domain: "education", Keywords: []string{"student", "students", "teacher", "learning", "curriculum", "school", "course", "teaching", "exam", "classroom"}},
			{Domain: "healthcare", Keywords: []string{"patient", "patients", "medical", "health", "hospital", "treatment", "doctor", "disease", "clinical", "diagnosis"}},
			{Domain: "engineering", Keywords: []string{"bridge", "structural", "mechanical", "electrical", "load", "stress", "material", "construction", "machine", "tons", "engine", "circuit"}},
		},
		RelationPatterns: []RelationPattern{
			{Kind: "is", Pattern: `(?i)\b(\w+)\s+is\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "has", Pattern: `(?i)\b(\w+)\s+(?:has|have)\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "causes", Pattern: `(?i)\b(\w+)\s+causes?\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "affects", Pattern: `(?i)\b(\w+)\s+affects?\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "depends_on", Pattern: `(?i)\b(\w+)\s+depends?\s+on\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "leads_to", Pattern: `(?i)\b(\w+)\s+leads?\s+to\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
			{Kind: "correlates_with", Pattern: `(?i)\b(\w+)\s+correlates?\s+with\s+(?:a\s+|an\s+|the\s+)?(\w+)`},
		},
		ConstraintPatterns: []string{
			`(?i)\bsubject to\s+([^.]+)`,
			`(?i)\b(must\s+[^.]+)`,
			`(?i)\b(cannot\s+[^.]+)`,
			`(?i)\b(within\s+[^.]+)`,
			`(?i)\b(maximum\s+[^.]+)`,
			`(?i)\b(no more than\s+[^.]+)`,
			`(?i)\b(limited to\s+[^.]+)`,
		},
		ObjectivePatterns: []string{
			`(?i)\b(?:goal|objective|aim|purpose) is to\s+([^.]+)`,
			`(?i)\bwant to\s+([^.]+)`,
			`(?i)\bneed to\s+([^.]+)`,
			`(?i)\b((?:maximize|minimize|maximise|minimise)\s+[^.]+)`,
			`(?i)\b(achieve\s+[^.]+)`,
		},
		DefaultObjectives: []ObjectiveCue{
			{Cues: []string{"calculate", "find", "determine"}, Objective: "Find the solution"},
			{Cues: []string{"design", "create", "build"}, Objective: "Create a solution"},
			{Cues: []string{"optimize", "improve"}, Objective: "Optimize the system"},
		},
		UrgencyIndicators:    []string{"urgent", "asap", "immediately", "critical", "deadline", "quickly", "emergency", "priority"},
		ComplexityIndicators: []string{"complex", "complicated", "multiple", "various", "interdependent", "several", "dynamic", "uncertain", "distributed"},
		StructuralProbes: []StructuralProbe{
			{Tag: problem.TagConditionalLogic, Pattern: `(?is)\bif\b.*\bthen\b`},
			{Tag: problem.TagIterationPattern, Pattern: `(?i)\b(for each|for all|every)\b`},
			{Tag: problem.TagComparison, Pattern: `(?i)\b(compare|versus|between)\b|\bvs\.`},
			{Tag: problem.TagSequential, Pattern: `(?i)\bstep \d+|\b(first|second|third|finally)\b`},
			{Tag: problem.TagAlternative, Pattern: `(?is)\beither\b.*\bor\b|\balternative`},
			{Tag: problem.TagCausal, Pattern: `(?i)\b(cause|effect|because|due to|result)`},
			{Tag: problem.TagQuantitative, Pattern: `(?i)\d+%|\b(percent|ratio|proportion)\b`},
		},
		MathPattern: `(?i)\d+|\b(equation|formula|calculate|compute)\b`,
		StopWords:   lexical.DefaultStopWords(),
	}
}
