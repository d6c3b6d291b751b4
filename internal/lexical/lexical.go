package lexical

import (
	"regexp"
	"sort"
	"strings"
)

// MinWordLength is the shortest alphabetic token kept as a component or keyword.
const MinWordLength = 3

// tokenPattern matches numeric/measurement tokens first (optional currency symbol,
// digits, optional percent sign or unit word), then alphabetic words.
var tokenPattern = regexp.MustCompile(`(?i)[$€£]?\d+(?:[.,]\d+)*(?:\s*%|\s(?:percent|tons?|tonnes?|kg|grams?|km|kilometers?|miles?|meters?|hours?|hrs?|minutes?|mins?|seconds?|ms|days?|weeks?|months?|years?|dollars?|usd|eur|gb|mb|tb)\b)?|[a-z]+(?:'[a-z]+)?`)

var digitPattern = regexp.MustCompile(`\d`)

// Token is one lexical unit of a text.
type Token struct {
	// Text is the lower-cased token.
	Text string
	// Numeric is true for number and measurement tokens.
	Numeric bool
	// Position is the token index in the text.
	Position int
}

// Analyzer tokenizes text and filters stop-words.
//
// An Analyzer is read-only after construction and safe for concurrent use.
type Analyzer struct {
	stopWords map[string]struct{}
}

// New creates an Analyzer. A nil or empty list selects DefaultStopWords.
func New(stopWords []string) *Analyzer {
	if len(stopWords) == 0 {
		stopWords = DefaultStopWords()
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Analyzer{stopWords: set}
}

// IsStopWord reports whether word is in the stop-word list.
func (a *Analyzer) IsStopWord(word string) bool {
	_, ok := a.stopWords[strings.ToLower(word)]
	return ok
}

// Tokenize splits text into ordered tokens.
func (a *Analyzer) Tokenize(text string) []Token {
	matches := tokenPattern.FindAllString(text, -1)
	tokens := make([]Token, 0, len(matches))
	for i, m := range matches {
		tokens = append(tokens, Token{
			Text:     strings.ToLower(strings.Join(strings.Fields(m), " ")),
			Numeric:  digitPattern.MatchString(m),
			Position: i,
		})
	}
	return tokens
}

// Words returns the alphabetic tokens of text, lower-cased, stop-words included.
func (a *Analyzer) Words(text string) []string {
	var words []string
	for _, tok := range a.Tokenize(text) {
		if !tok.Numeric {
			words = append(words, tok.Text)
		}
	}
	return words
}

// Significant reports whether tok survives component filtering: numeric tokens,
// or alphabetic non-stop-words of at least MinWordLength letters.
func (a *Analyzer) Significant(tok Token) bool {
	if tok.Numeric {
		return true
	}
	if strings.Contains(tok.Text, "'") {
		return false
	}
	return len(tok.Text) >= MinWordLength && !a.IsStopWord(tok.Text)
}

// Components extracts significant tokens, deduplicated case-insensitively in
// first-seen order, capped at limit.
func (a *Analyzer) Components(text string, limit int) []string {
	seen := make(map[string]struct{})
	components := make([]string, 0, limit)
	for _, tok := range a.Tokenize(text) {
		if len(components) >= limit {
			break
		}
		if !a.Significant(tok) {
			continue
		}
		if _, dup := seen[tok.Text]; dup {
			continue
		}
		seen[tok.Text] = struct{}{}
		components = append(components, tok.Text)
	}
	return components
}

// Keywords ranks alphabetic non-stop-words by frequency and returns the top limit.
// Ties keep first-occurrence order.
func (a *Analyzer) Keywords(text string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range a.Tokenize(text) {
		if tok.Numeric || !a.Significant(tok) {
			continue
		}
		if counts[tok.Text] == 0 {
			order = append(order, tok.Text)
		}
		counts[tok.Text]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		return []string{}
	}
	return order
}
