// Package segment splits text into provider-safe chunks for speech synthesis.
//
// Sizes are measured under a CountingUnit. Chunking prefers sentence boundaries,
// then word boundaries, and only truncates as a last resort. Every function in
// this package is pure and safe for concurrent use.
package segment

import (
	"fmt"
	"strings"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
)

// CountingUnit determines how the size of a text fragment is measured.
type CountingUnit int

const (
	// UnitUnknown is the zero value and is never valid.
	UnitUnknown CountingUnit = iota
	// UnitCharacters counts Unicode code points.
	UnitCharacters
	// UnitBytes counts UTF-8 encoded bytes.
	UnitBytes
	// UnitTokens counts tokens under a named tokenizer encoding.
	UnitTokens
)

// Units returns every valid counting unit.
func Units() []CountingUnit {
	return []CountingUnit{UnitCharacters, UnitBytes, UnitTokens}
}

// String returns the canonical name of the unit.
func (u CountingUnit) String() string {
	switch u {
	case UnitCharacters:
		return "characters"
	case UnitBytes:
		return "bytes"
	case UnitTokens:
		return "tokens"
	default:
		return "unknown"
	}
}

// Valid reports whether u is one of the defined units.
func (u CountingUnit) Valid() bool {
	switch u {
	case UnitCharacters, UnitBytes, UnitTokens:
		return true
	default:
		return false
	}
}

// ParseUnit converts a unit name into a CountingUnit.
func ParseUnit(s string) (CountingUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "characters", "character", "chars", "char":
		return UnitCharacters, nil
	case "bytes", "byte":
		return UnitBytes, nil
	case "tokens", "token":
		return UnitTokens, nil
	default:
		return UnitUnknown, domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("unit %q", s), domainErrors.ErrUnknownUnit)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u CountingUnit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, domainErrors.ErrUnknownUnit
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *CountingUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
