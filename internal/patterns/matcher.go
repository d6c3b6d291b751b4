package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/problemsolver/internal/problem"
	"go.uber.org/zap"
)

const (
	// DefaultSimilarityThreshold is the minimum similarity for a catalog entry to match.
	DefaultSimilarityThreshold = 0.7

	// KeyPatternBonus is added per key pattern related to an entry tag.
	KeyPatternBonus = 0.1

	// MaxKeyPatternBonus caps the total key pattern bonus.
	MaxKeyPatternBonus = 0.3

	// ComplexAbove and ModerateAbove are the complexity bucket boundaries.
	ComplexAbove  = 0.7
	ModerateAbove = 0.4

	// ScalingAbove is the complexity above which complexity_scaling adaptation is needed.
	ScalingAbove = 0.8
)

// objectiveCues infer synthesized tags from objective text.
var objectiveCues = []struct {
	tag  string
	cues []string
}{
	{TagOptimization, []string{"optimiz", "optimis", "maximi", "minimi", "improve", "reduce", "efficien"}},
	{TagDecisionMaking, []string{"decide", "decision", "choose", "select"}},
	{TagPrediction, []string{"predict", "forecast", "estimate"}},
}

// Config configures a Matcher.
type Config struct {
	Catalog             Catalog
	SimilarityThreshold float64
	MaxMatches          int
}

// Matcher compares problem structures against the pattern catalog.
//
// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	catalog   Catalog
	threshold float64
	maxMatch  int
	logger    *zap.Logger
}

// NewMatcher creates a Matcher. Zero values in cfg select the defaults.
func NewMatcher(cfg Config, logger *zap.Logger) (*Matcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Catalog.Entries == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern catalog: %w", err)
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.MaxMatches <= 0 || cfg.MaxMatches > problem.MaxPatternMatches {
		cfg.MaxMatches = problem.MaxPatternMatches
	}
	return &Matcher{
		catalog:   cfg.Catalog,
		threshold: cfg.SimilarityThreshold,
		maxMatch:  cfg.MaxMatches,
		logger:    logger,
	}, nil
}

// FindMatches returns catalog entries at or above the similarity threshold,
// sorted by similarity descending (catalog order on ties), at most MaxMatches.
func (m *Matcher) FindMatches(ps problem.Structure) []problem.PatternMatch {
	tags := ProblemTags(ps)
	matches := make([]problem.PatternMatch, 0)

	for _, entry := range m.catalog.Entries {
		score := problem.Clamp(Similarity(tags, entry.Tags)+KeyBonus(tags, entry.Tags), 0, 1)
		if score < m.threshold {
			continue
		}
		matches = append(matches, problem.PatternMatch{
			PatternID:        entry.ID,
			Name:             entry.Name,
			Category:         entry.Category,
			SimilarityScore:  score,
			SourceDomains:    append([]string(nil), entry.SourceDomains...),
			ConfidenceLevel:  problem.ConfidenceLevelFor(score),
			AdaptationNeeded: adaptations(ps, entry),
			SolutionTemplate: entry.SolutionTemplate,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	if len(matches) > m.maxMatch {
		matches = matches[:m.maxMatch]
	}

	m.logger.Debug("pattern matching completed",
		zap.String("problem_id", ps.ProblemID),
		zap.Strings("problem_tags", tags),
		zap.Int("matches", len(matches)))

	return matches
}

// ProblemTags derives the problem pattern set: structural patterns, relation
// kinds, objective-inferred tags, constrained_problem and a complexity bucket.
// The result is sorted and deduplicated.
func ProblemTags(ps problem.Structure) []string {
	set := make(map[string]struct{})
	for _, p := range ps.StructuralPatterns {
		set[string(p)] = struct{}{}
	}
	for _, r := range ps.Relationships {
		set[r.Kind] = struct{}{}
	}

	objectives := strings.ToLower(strings.Join(ps.Objectives, " "))
	for _, oc := range objectiveCues {
		for _, cue := range oc.cues {
			if strings.Contains(objectives, cue) {
				set[oc.tag] = struct{}{}
				break
			}
		}
	}

	if len(ps.Constraints) > 0 {
		set[TagConstrained] = struct{}{}
	}

	switch {
	case ps.ComplexityScore > ComplexAbove:
		set[TagComplexSystem] = struct{}{}
	case ps.ComplexityScore > ModerateAbove:
		set[TagModerateComplexity] = struct{}{}
	default:
		set[TagSimpleProblem] = struct{}{}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Similarity is the Jaccard index |a∩b| / |a∪b| of two tag sets; 0 when both are empty.
func Similarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	union := len(setA)
	inter := 0
	for t := range setB {
		if _, ok := setA[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// KeyBonus is 0.1 per problem tag that is a key pattern and textually related to
// an entry tag, capped at 0.3.
func KeyBonus(problemTags, entryTags []string) float64 {
	count := 0
	for _, pt := range problemTags {
		if !isKeyPattern(pt) {
			continue
		}
		for _, et := range entryTags {
			if strings.Contains(et, pt) || strings.Contains(pt, et) {
				count++
				break
			}
		}
	}
	bonus := float64(count) * KeyPatternBonus
	if bonus > MaxKeyPatternBonus {
		bonus = MaxKeyPatternBonus
	}
	return bonus
}

func isKeyPattern(tag string) bool {
	for _, k := range KeyPatterns {
		if k == tag {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}

// adaptations lists what must change to apply entry to ps.
func adaptations(ps problem.Structure, entry Entry) []string {
	out := make([]string, 0)
	if len(entry.SourceDomains) > 0 && !contains(entry.SourceDomains, ps.Domain) {
		out = append(out, fmt.Sprintf("domain_adaptation_from_%s_to_%s", entry.SourceDomains[0], ps.Domain))
	}
	if ps.ComplexityScore > ScalingAbove {
		out = append(out, "complexity_scaling")
	}
	if len(ps.Constraints) > 0 {
		out = append(out, "constraint_integration")
	}
	if len(ps.Objectives) > 1 {
		out = append(out, "multi_objective_handling")
	}
	return out
}

func contains(items []string, s string) bool {
	for _, i := range items {
		if i == s {
			return true
		}
	}
	return false
}
