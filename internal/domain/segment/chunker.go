package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
)

// sentencePattern tiles text into sentence-like runs: anything up to and
// including a run of terminators plus trailing whitespace, or the final
// unterminated remainder. It is a heuristic, not grammatical segmentation.
var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+\s*|[^.!?]+$`)

// Result is the output of a chunking call.
//
// Truncated is set when a run of text with no usable boundary was larger
// than the limit and only its first maxSize units were kept. That content
// is lost; callers that cannot accept loss should check the flag.
type Result struct {
	Chunks           []string `json:"chunks"`
	ParagraphIndices []int    `json:"paragraphIndices,omitempty"`
	Truncated        bool     `json:"truncated"`
}

// Chunker splits text into chunks no larger than MaxSize under its Counter.
// A Chunker holds no mutable state and may be shared across goroutines.
type Chunker struct {
	counter Counter
	maxSize int
}

// NewChunker returns a Chunker for the given counter and limit.
func NewChunker(counter Counter, maxSize int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, domainErrors.InvalidLimit(maxSize)
	}
	if counter == nil {
		return nil, domainErrors.ErrUnknownUnit
	}
	return &Chunker{counter: counter, maxSize: maxSize}, nil
}

// MaxSize returns the configured limit.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Unit returns the counting unit of the underlying counter.
func (c *Chunker) Unit() CountingUnit { return c.counter.Unit() }

// Chunk splits text preferring sentence boundaries, then word boundaries.
// Text that already fits is returned unchanged as a single chunk.
func (c *Chunker) Chunk(text string) Result {
	chunks, truncated := c.chunk(text)
	return Result{Chunks: chunks, Truncated: truncated}
}

func (c *Chunker) chunk(text string) ([]string, bool) {
	if c.counter.Size(text) <= c.maxSize {
		return []string{text}, false
	}

	acc := &accumulator{counter: c.counter, maxSize: c.maxSize}
	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		acc.addSentence(sentence)
	}
	acc.flush()

	if len(acc.chunks) == 0 {
		return []string{c.counter.Truncate(text, c.maxSize)}, true
	}
	return acc.chunks, acc.truncated
}

// Chunk is a convenience wrapper that builds a Chunker and returns its chunks.
func Chunk(text string, maxSize int, counter Counter) ([]string, error) {
	c, err := NewChunker(counter, maxSize)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text).Chunks, nil
}

// accumulator greedily packs sentences and words into chunks.
type accumulator struct {
	counter   Counter
	maxSize   int
	current   string
	chunks    []string
	truncated bool
}

// fits measures s as it would be flushed, without edge whitespace.
func (a *accumulator) fits(s string) bool {
	return a.counter.Size(strings.TrimSpace(s)) <= a.maxSize
}

func (a *accumulator) flush() {
	if trimmed := strings.TrimSpace(a.current); trimmed != "" {
		a.chunks = append(a.chunks, trimmed)
	}
	a.current = ""
}

func (a *accumulator) addSentence(sentence string) {
	if a.fits(a.current + sentence) {
		a.current += sentence
		return
	}
	a.flush()
	if a.fits(sentence) {
		a.current = sentence
		return
	}
	a.addWords(sentence)
}

// addWords packs an oversized sentence word by word. A word that alone
// exceeds the limit is cut to its first maxSize units.
func (a *accumulator) addWords(sentence string) {
	for _, word := range strings.Fields(sentence) {
		candidate := word
		if a.current != "" {
			candidate = a.current + " " + word
		}
		if a.fits(candidate) {
			a.current = candidate
			continue
		}
		a.flush()
		if a.fits(word) {
			a.current = word
			continue
		}
		a.truncated = true
		if cut := strings.TrimSpace(a.counter.Truncate(word, a.maxSize)); cut != "" {
			a.chunks = append(a.chunks, cut)
		}
	}
	// Keep the gap that followed the sentence so the next one does not fuse.
	if a.current != "" && endsWithSpace(sentence) {
		a.current += " "
	}
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && unicode.IsSpace(r)
}
