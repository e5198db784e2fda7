package segment

import (
	"unicode/utf8"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
)

// Counter measures and truncates text under a single counting unit.
// Size and Truncate agree: Size(Truncate(s, n)) <= n.
type Counter interface {
	Unit() CountingUnit
	Size(text string) int
	Truncate(text string, n int) string
}

// Tokenizer counts and truncates text in model tokens.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	CountTokens(text string) int
	TruncateTokens(text string, n int) string
}

// TokenizerSource resolves a tokenizer by encoding name.
type TokenizerSource interface {
	Tokenizer(encoding string) (Tokenizer, error)
}

// NewCounter returns the Counter for unit. encoding and tokenizers are only
// consulted for UnitTokens.
func NewCounter(unit CountingUnit, encoding string, tokenizers TokenizerSource) (Counter, error) {
	switch unit {
	case UnitCharacters:
		return CharacterCounter{}, nil
	case UnitBytes:
		return ByteCounter{}, nil
	case UnitTokens:
		if encoding == "" || tokenizers == nil {
			return nil, domainErrors.UnknownEncoding(encoding, nil)
		}
		tok, err := tokenizers.Tokenizer(encoding)
		if err != nil {
			if domainErrors.Is(err, domainErrors.ErrUnknownEncoding) {
				return nil, err
			}
			return nil, domainErrors.UnknownEncoding(encoding, err)
		}
		return TokenCounter{Encoding: encoding, tokenizer: tok}, nil
	default:
		return nil, domainErrors.ErrUnknownUnit
	}
}

// Size is a convenience for measuring text once.
func Size(text string, unit CountingUnit, encoding string, tokenizers TokenizerSource) (int, error) {
	c, err := NewCounter(unit, encoding, tokenizers)
	if err != nil {
		return 0, err
	}
	return c.Size(text), nil
}

// CharacterCounter counts Unicode code points.
type CharacterCounter struct{}

func (CharacterCounter) Unit() CountingUnit { return UnitCharacters }

func (CharacterCounter) Size(text string) int { return utf8.RuneCountInString(text) }

// Truncate returns the first n code points of text.
func (CharacterCounter) Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// ByteCounter counts UTF-8 bytes.
type ByteCounter struct{}

func (ByteCounter) Unit() CountingUnit { return UnitBytes }

func (ByteCounter) Size(text string) int { return len(text) }

// Truncate returns at most n bytes of text without splitting a rune.
func (ByteCounter) Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// TokenCounter counts tokens with a resolved tokenizer.
type TokenCounter struct {
	Encoding  string
	tokenizer Tokenizer
}

func (TokenCounter) Unit() CountingUnit { return UnitTokens }

func (c TokenCounter) Size(text string) int {
	if text == "" {
		return 0
	}
	return c.tokenizer.CountTokens(text)
}

func (c TokenCounter) Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	return c.tokenizer.TruncateTokens(text, n)
}
