// Package tokenizer provides token counting infrastructure using tiktoken.
// It implements the segment.TokenizerSource port so chunkers can size text
// in model tokens.
package tokenizer

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
)

// Well-known encoding names.
const (
	EncodingCL100K    = "cl100k_base"
	EncodingO200K     = "o200k_base"
	EncodingP50K      = "p50k_base"
	EncodingR50K      = "r50k_base"
	EncodingHeuristic = "heuristic"
)

// Registry resolves and caches tokenizers by encoding name.
// Encodings are loaded lazily on first use and never evicted.
type Registry struct {
	mu        sync.RWMutex
	encodings map[string]segment.Tokenizer
	load      func(name string) (*tiktoken.Tiktoken, error)
}

var _ segment.TokenizerSource = (*Registry)(nil)

// NewRegistry creates an empty tokenizer registry backed by tiktoken.
func NewRegistry() *Registry {
	return &Registry{
		encodings: map[string]segment.Tokenizer{
			EncodingHeuristic: NewSimpleEstimator(),
		},
		load: tiktoken.GetEncoding,
	}
}

// Tokenizer returns the tokenizer for encoding, loading it on first use.
func (r *Registry) Tokenizer(encoding string) (segment.Tokenizer, error) {
	r.mu.RLock()
	tok, ok := r.encodings[encoding]
	r.mu.RUnlock()
	if ok {
		return tok, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.encodings[encoding]; ok {
		return tok, nil
	}

	enc, err := r.load(encoding)
	if err != nil {
		return nil, domainErrors.UnknownEncoding(encoding, err)
	}
	est := &Estimator{encoding: enc}
	r.encodings[encoding] = est
	return est, nil
}

// Loaded returns the names of encodings that are ready for use.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.encodings))
	for name := range r.encodings {
		names = append(names, name)
	}
	return names
}

// EncodingForModel returns the tiktoken encoding name used by an OpenAI model,
// or "" if tiktoken does not know the model.
func EncodingForModel(model string) string {
	return tiktoken.MODEL_TO_ENCODING[model]
}

// Estimator provides token counting using a tiktoken encoding.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var _ segment.Tokenizer = (*Estimator)(nil)

// NewEstimator creates a token estimator for the named encoding.
func NewEstimator(name string) (*Estimator, error) {
	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, domainErrors.UnknownEncoding(name, err)
	}

	return &Estimator{
		encoding: encoding,
	}, nil
}

// CountTokens returns the token count for the given text.
// This method is thread-safe.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// TruncateTokens returns the text covered by the first n tokens.
// A token that ends inside a multi-byte character is dropped.
func (e *Estimator) TruncateTokens(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	if len(tokens) <= n {
		return text
	}
	out := e.encoding.Decode(tokens[:n])
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, "")
	}
	return out
}

// SimpleEstimator provides a simple heuristic-based token estimator
// that doesn't require external data. Uses ~4 characters per token.
type SimpleEstimator struct{}

var _ segment.Tokenizer = (*SimpleEstimator)(nil)

// NewSimpleEstimator creates a new simple token estimator.
// This is useful for testing or when the BPE files cannot be fetched.
func NewSimpleEstimator() *SimpleEstimator {
	return &SimpleEstimator{}
}

// CountTokens returns an estimated token count using ~4 characters per token heuristic.
func (e *SimpleEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TruncateTokens keeps the first n*4 characters.
func (e *SimpleEstimator) TruncateTokens(text string, n int) string {
	return segment.CharacterCounter{}.Truncate(text, n*4)
}
