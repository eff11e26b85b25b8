package out

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"lockin/internal/modules/relevance/domain"
	relevanceout "lockin/internal/modules/relevance/port/out"
)

const DefaultHashDimensions = 384

// HashEmbedder is an offline feature-hashing embedder over word unigrams,
// bigrams, and character trigrams. It needs no model and is deterministic.
type HashEmbedder struct {
	dims int
}

var _ relevanceout.Embedder = (*HashEmbedder)(nil)

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("hash:%d", e.dims)
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	tokens := e.tokenize(text)
	for i, tok := range tokens {
		e.add(vec, "w:"+tok, 1)
		if i > 0 {
			e.add(vec, "b:"+tokens[i-1]+" "+tok, 0.5)
		}
		padded := "^" + tok + "$"
		runes := []rune(padded)
		for j := 0; j+3 <= len(runes); j++ {
			e.add(vec, "c:"+string(runes[j:j+3]), 0.25)
		}
	}
	return domain.Normalize(vec), nil
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := sum % uint64(e.dims)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashEmbedder) tokenize(text string) []string {
	// Casers are stateful, so each call gets its own.
	folded := cases.Fold().String(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "of": true, "to": true, "in": true, "on": true,
	"for": true, "with": true, "is": true, "are": true, "was": true, "be": true, "at": true,
	"by": true, "an": true, "as": true, "it": true, "this": true, "that": true, "from": true,
	"title": true, "meta": true, "description": true, "og": true, "no": true, "found": true,
}
