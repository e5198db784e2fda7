package provider

import (
	"fmt"
	"sort"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
)

// LimitRegistry is an immutable lookup table of model limits keyed by both
// the internal model ID and the provider's API model ID. It is built once and
// safe for concurrent reads.
type LimitRegistry struct {
	limits []ModelLimit
	byID   map[string]int
}

// NewLimitRegistry validates limits and indexes them. Identifiers must be
// unique across both ID columns, except that a model's API ID may equal its
// own model ID.
func NewLimitRegistry(limits ...ModelLimit) (*LimitRegistry, error) {
	r := &LimitRegistry{
		limits: make([]ModelLimit, 0, len(limits)),
		byID:   make(map[string]int, len(limits)*2),
	}
	for _, l := range limits {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		idx := len(r.limits)
		for _, id := range []string{l.ModelID, l.APIModelID} {
			if id == "" {
				continue
			}
			if prev, ok := r.byID[id]; ok && prev != idx {
				return nil, domainErrors.WithContext(
					domainErrors.NewError(domainErrors.CodeConfiguration, fmt.Sprintf("identifier %q", id), domainErrors.ErrDuplicateModel),
					"model_id", l.ModelID)
			}
			r.byID[id] = idx
		}
		r.limits = append(r.limits, l)
	}
	return r, nil
}

// Merge returns limits with overrides applied: an override replaces the base
// entry with the same ModelID, and new IDs are appended.
func Merge(base []ModelLimit, overrides ...ModelLimit) []ModelLimit {
	out := make([]ModelLimit, len(base))
	copy(out, base)
	for _, o := range overrides {
		replaced := false
		for i := range out {
			if out[i].ModelID == o.ModelID {
				out[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}

// Lookup finds a limit by model ID or API model ID.
func (r *LimitRegistry) Lookup(id string) (ModelLimit, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return ModelLimit{}, false
	}
	return r.limits[idx], true
}

// Get is Lookup with an ErrModelNotFound error on a miss.
func (r *LimitRegistry) Get(id string) (ModelLimit, error) {
	l, ok := r.Lookup(id)
	if !ok {
		return ModelLimit{}, domainErrors.ModelNotFound(id)
	}
	return l, nil
}

// All returns a copy of every limit, sorted by provider then model ID.
func (r *LimitRegistry) All() []ModelLimit {
	out := make([]ModelLimit, len(r.limits))
	copy(out, r.limits)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out
}

// Len returns the number of registered models.
func (r *LimitRegistry) Len() int {
	return len(r.limits)
}
