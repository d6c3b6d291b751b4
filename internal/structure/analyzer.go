package structure

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/problemsolver/internal/lexical"
	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"go.uber.org/zap"
)

// ProximityWindow is the token distance within which two components are
// considered related_to each other. It is a tuning constant carried over from
// the original heuristic and has no derivation beyond that.
const ProximityWindow = 3

// RelationRelatedTo is the relation kind emitted by the proximity heuristic.
const RelationRelatedTo = "related_to"

// Complexity score weights and saturation points.
const (
	lengthWeight       = 0.20
	componentWeight    = 0.25
	relationshipWeight = 0.25
	technicalWeight    = 0.15
	mathWeight         = 0.15

	lengthSaturation       = 1000.0
	componentSaturation    = 20.0
	relationshipSaturation = 30.0
	technicalSaturation    = 15.0
	mathSaturation         = 10.0
)

type compiledTemplate struct {
	typ   problem.Type
	regex *regexp.Regexp
}

type compiledDomain struct {
	domain string
	regex  *regexp.Regexp
}

type compiledRelation struct {
	kind  string
	regex *regexp.Regexp
}

type compiledProbe struct {
	tag   problem.StructuralTag
	regex *regexp.Regexp
}

// Analyzer turns free text into a problem.Structure using rule tables.
//
// Analyzer is read-only after construction and safe for concurrent use.
type Analyzer struct {
	rules       Rules
	lexer       *lexical.Analyzer
	templates   []compiledTemplate
	domains     []compiledDomain
	relations   []compiledRelation
	constraints []*regexp.Regexp
	objectives  []*regexp.Regexp
	probes      []compiledProbe
	math        *regexp.Regexp
	logger      *zap.Logger

	// beforeStep runs at the start of every extraction step when set.
	beforeStep func(step string)
}

// NewAnalyzer compiles rules into an Analyzer. An invalid regex in rules is an error.
func NewAnalyzer(rules Rules, logger *zap.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rules.TemplateBonus == 0 {
		rules.TemplateBonus = 2
	}

	a := &Analyzer{
		rules:  rules,
		lexer:  lexical.New(rules.StopWords),
		logger: logger,
	}

	for _, t := range rules.TypeTemplates {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling type template for %s: %w", t.Type, err)
		}
		a.templates = append(a.templates, compiledTemplate{typ: t.Type, regex: re})
	}

	for _, d := range rules.Domains {
		if len(d.Keywords) == 0 {
			continue
		}
		quoted := make([]string, len(d.Keywords))
		for i, kw := range d.Keywords {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(kw))
		}
		re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling keywords for domain %s: %w", d.Domain, err)
		}
		a.domains = append(a.domains, compiledDomain{domain: d.Domain, regex: re})
	}

	for _, r := range rules.RelationPatterns {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling relation %s: %w", r.Kind, err)
		}
		if re.NumSubexp() < 2 {
			return nil, fmt.Errorf("relation %s: pattern needs two capture groups", r.Kind)
		}
		a.relations = append(a.relations, compiledRelation{kind: r.Kind, regex: re})
	}

	var err error
	if a.constraints, err = compileAll(rules.ConstraintPatterns); err != nil {
		return nil, fmt.Errorf("compiling constraint patterns: %w", err)
	}
	if a.objectives, err = compileAll(rules.ObjectivePatterns); err != nil {
		return nil, fmt.Errorf("compiling objective patterns: %w", err)
	}

	for _, p := range rules.StructuralProbes {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling probe %s: %w", p.Tag, err)
		}
		a.probes = append(a.probes, compiledProbe{tag: p.Tag, regex: re})
	}

	mathPattern := rules.MathPattern
	if mathPattern == "" {
		mathPattern = DefaultRules().MathPattern
	}
	if a.math, err = regexp.Compile(mathPattern); err != nil {
		return nil, fmt.Errorf("compiling math pattern: %w", err)
	}

	return a, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Analyze extracts a problem.Structure from text. It never fails: a step that
// panics falls back to its narrowest default and the rest of the analysis continues.
func (a *Analyzer) Analyze(text string) problem.Structure {
	ps := problem.Empty(text)
	if strings.TrimSpace(text) == "" {
		return ps
	}
	lower := strings.ToLower(text)

	a.safely("classify", func() { ps.Type = a.classify(lower) })
	a.safely("components", func() {
		ps.KeyComponents = a.lexer.Components(text, problem.MaxKeyComponents)
	})
	a.safely("relationships", func() {
		ps.Relationships = a.extractRelationships(text, ps.KeyComponents)
	})
	a.safely("constraints", func() {
		ps.Constraints = extractClauses(a.constraints, text, problem.MaxConstraints)
	})
	a.safely("objectives", func() { ps.Objectives = a.extractObjectives(text) })
	a.safely("context", func() { ps.Context = a.buildContext(text, lower) })
	a.safely("domain", func() { ps.Domain = a.determineDomain(text) })
	a.safely("keywords", func() { ps.Keywords = a.lexer.Keywords(text, problem.MaxKeywords) })
	a.safely("structural_patterns", func() { ps.StructuralPatterns = a.tagPatterns(text) })
	a.safely("complexity", func() {
		ps.ComplexityScore = a.complexity(text, len(ps.KeyComponents), len(ps.Relationships))
	})

	a.logger.Debug("problem analyzed",
		zap.String("problem_id", ps.ProblemID),
		zap.String("problem_type", string(ps.Type)),
		zap.String("domain", ps.Domain),
		zap.Float64("complexity", ps.ComplexityScore),
		zap.Int("components", len(ps.KeyComponents)),
		zap.Int("relationships", len(ps.Relationships)))

	return ps
}

// safely runs step and logs instead of propagating a panic.
func (a *Analyzer) safely(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("extraction step failed, using default",
				zap.String("step", step),
				zap.Any("panic", r))
		}
	}()
	if a.beforeStep != nil {
		a.beforeStep(step)
	}
	fn()
}

// classify scores each type by trigger phrase occurrences plus template bonuses.
// Ties go to the type declared first; no score at all yields UNKNOWN.
func (a *Analyzer) classify(lower string) problem.Type {
	scores := make(map[problem.Type]int)
	var order []problem.Type
	seen := make(map[problem.Type]bool)
	note := func(t problem.Type) {
		if !seen[t] {
			seen[t] = true
			order = append(order, t)
		}
	}

	for _, trig := range a.rules.TypeTriggers {
		note(trig.Type)
		for _, phrase := range trig.Phrases {
			if phrase == "" {
				continue
			}
			scores[trig.Type] += strings.Count(lower, strings.ToLower(phrase))
		}
	}
	for _, tmpl := range a.templates {
		note(tmpl.typ)
		if tmpl.regex.MatchString(lower) {
			scores[tmpl.typ] += a.rules.TemplateBonus
		}
	}

	best, bestScore := problem.TypeUnknown, 0
	for _, t := range order {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}
	return best
}

func (a *Analyzer) extractRelationships(text string, components []string) []problem.Relationship {
	inSet := make(map[string]bool, len(components))
	for _, c := range components {
		inSet[c] = true
	}

	rels := make([]problem.Relationship, 0)
	seen := make(map[problem.Relationship]bool)
	add := func(r problem.Relationship) bool {
		if len(rels) >= problem.MaxRelationships {
			return false
		}
		if r.Source == r.Target || seen[r] {
			return true
		}
		seen[r] = true
		rels = append(rels, r)
		return true
	}

	for _, rel := range a.relations {
		for _, m := range rel.regex.FindAllStringSubmatch(text, -1) {
			src, dst := strings.ToLower(m[1]), strings.ToLower(m[2])
			if inSet[src] && inSet[dst] {
				if !add(problem.Relationship{Source: src, Kind: rel.kind, Target: dst}) {
					return rels
				}
			}
		}
	}

	tokens := a.lexer.Tokenize(text)
	for i := range tokens {
		if !inSet[tokens[i].Text] {
			continue
		}
		for j := i + 1; j < len(tokens) && j-i <= ProximityWindow; j++ {
			if !inSet[tokens[j].Text] {
				continue
			}
			if !add(problem.Relationship{Source: tokens[i].Text, Kind: RelationRelatedTo, Target: tokens[j].Text}) {
				return rels
			}
		}
	}
	return rels
}

// extractClauses applies each regex and keeps capture group 1 trimmed, deduplicated.
func extractClauses(patterns []*regexp.Regexp, text string, limit int) []string {
	out := make([]string, 0)
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(out) >= limit {
				return out
			}
			clause := m[0]
			if len(m) > 1 {
				clause = m[1]
			}
			clause = strings.TrimSpace(clause)
			key := strings.ToLower(clause)
			if clause == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, clause)
		}
	}
	return out
}

func (a *Analyzer) extractObjectives(text string) []string {
	objectives := extractClauses(a.objectives, text, problem.MaxObjectives)
	if len(objectives) > 0 {
		return objectives
	}
	words := make(map[string]bool)
	for _, w := range a.lexer.Words(text) {
		words[w] = true
	}
	for _, cue := range a.rules.DefaultObjectives {
		for _, c := range cue.Cues {
			if words[strings.ToLower(c)] {
				return []string{cue.Objective}
			}
		}
	}
	return objectives
}

func (a *Analyzer) buildContext(text, lower string) problem.Context {
	words := a.lexer.Words(text)
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	pick := func(indicators []string) []string {
		found := make([]string, 0)
		for _, ind := range indicators {
			if present[strings.ToLower(ind)] {
				found = append(found, ind)
			}
		}
		return found
	}

	domainIndicators := make([]string, 0)
	seen := make(map[string]bool)
	for _, d := range a.rules.Domains {
		for _, kw := range pick(d.Keywords) {
			if !seen[kw] {
				seen[kw] = true
				domainIndicators = append(domainIndicators, kw)
			}
		}
	}

	return problem.Context{
		Length:               len(text),
		WordCount:            len(strings.Fields(text)),
		UrgencyIndicators:    pick(a.rules.UrgencyIndicators),
		DomainIndicators:     domainIndicators,
		ComplexityIndicators: pick(a.rules.ComplexityIndicators),
		HasNumbers:           strings.ContainsAny(text, "0123456789"),
		HasQuestions:         strings.Contains(lower, "?"),
	}
}

// determineDomain picks the domain with the most keyword occurrences; ties go to
// the domain declared first.
func (a *Analyzer) determineDomain(text string) string {
	best, bestScore := problem.DomainGeneral, 0
	for _, d := range a.domains {
		if n := len(d.regex.FindAllStringIndex(text, -1)); n > bestScore {
			best, bestScore = d.domain, n
		}
	}
	return best
}

// technicalTermCount counts occurrences of any domain keyword.
func (a *Analyzer) technicalTermCount(text string) int {
	n := 0
	for _, d := range a.domains {
		n += len(d.regex.FindAllStringIndex(text, -1))
	}
	return n
}

func (a *Analyzer) tagPatterns(text string) []problem.StructuralTag {
	tags := make([]problem.StructuralTag, 0)
	for _, p := range a.probes {
		if p.regex.MatchString(text) {
			tags = append(tags, p.tag)
		}
	}
	return tags
}

// complexity is the weighted sum of saturated length, component, relationship,
// technical-term and math-indicator signals, rounded to three decimals.
func (a *Analyzer) complexity(text string, components, relationships int) float64 {
	technical := a.technicalTermCount(text)
	mathCount := len(a.math.FindAllStringIndex(text, -1))

	score := lengthWeight*math.Min(1, float64(len(text))/lengthSaturation) +
		componentWeight*math.Min(1, float64(components)/componentSaturation) +
		relationshipWeight*math.Min(1, float64(relationships)/relationshipSaturation) +
		technicalWeight*math.Min(1, float64(technical)/technicalSaturation) +
		mathWeight*math.Min(1, float64(mathCount)/mathSaturation)

	return problem.Clamp(math.Round(score*1000)/1000, 0, 1)
}
