package knowledge

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/fyrsmithlabs/problemsolver/internal/lexical"
	"github.com/philippgille/chromem-go"
)

// DefaultDimensions is the hash embedding width.
const DefaultDimensions = 256

// HashEmbedder maps text to a normalized bag-of-words vector by hashing each
// significant word into a fixed number of buckets. It is deterministic and needs
// no model.
type HashEmbedder struct {
	dims  int
	lexer *lexical.Analyzer
}

// NewHashEmbedder creates a HashEmbedder. dims <= 0 selects DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims, lexer: lexical.New(nil)}
}

// Embed returns the unit-length vector for text. Text without significant words
// maps to a fixed unit vector so chromem never sees a zero vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, tok := range e.lexer.Tokenize(text) {
		if !e.lexer.Significant(tok) {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok.Text))
		vec[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Func adapts the embedder to chromem.
func (e *HashEmbedder) Func() chromem.EmbeddingFunc {
	return e.Embed
}
