package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	a := New(nil)

	tokens := a.Tokenize("Maximize revenue subject to a budget of $10000, 15% margin and 50 tons.")

	texts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{
		"maximize", "revenue", "subject", "to", "a", "budget", "of", "$10000",
		"15%", "margin", "and", "50 tons",
	}, texts)
	assert.True(t, tokens[7].Numeric)
	assert.False(t, tokens[0].Numeric)
	assert.Equal(t, 7, tokens[7].Position)
}

func TestComponents(t *testing.T) {
	a := New(nil)

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "drops stop words and short tokens",
			text:  "Design a bridge that must support 50 tons.",
			limit: 15,
			want:  []string{"design", "bridge", "must", "support", "50 tons"},
		},
		{
			name:  "deduplicates case-insensitively",
			text:  "Cache the CACHE and the cache layer",
			limit: 15,
			want:  []string{"cache", "layer"},
		},
		{
			name:  "respects limit",
			text:  "alpha beta gamma delta epsilon",
			limit: 2,
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "empty text",
			text:  "",
			limit: 15,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Components(tt.text, tt.limit))
		})
	}
}

func TestKeywords_RankedByFrequency(t *testing.T) {
	a := New(nil)

	got := a.Keywords("server latency, server load, cache latency, server 42", 3)

	assert.Equal(t, []string{"server", "latency", "load"}, got)
}

func TestKeywords_Empty(t *testing.T) {
	a := New(nil)

	assert.Equal(t, []string{}, a.Keywords("the of and 123", 15))
}

func TestCustomStopWords(t *testing.T) {
	a := New([]string{"Bridge"})

	assert.True(t, a.IsStopWord("bridge"))
	assert.False(t, a.IsStopWord("the"))
	assert.Equal(t, []string{"the", "design"}, a.Components("the bridge design", 15))
}
