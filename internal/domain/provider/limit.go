// Package provider contains domain types describing the input limits of
// speech and language model providers.
package provider

import (
	"fmt"
	"strings"

	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
)

// Provider names
const (
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderGoogle     = "google"
	ProviderAmazon     = "amazon"
	ProviderAzure      = "azure"
)

// ModelLimit is the per-request input limit of one model.
type ModelLimit struct {
	ModelID      string               `json:"modelId" yaml:"model_id"`
	APIModelID   string               `json:"apiModelId" yaml:"api_model_id"`
	Provider     string               `json:"provider" yaml:"provider"`
	Unit         segment.CountingUnit `json:"unit" yaml:"unit"`
	MaxSize      int                  `json:"maxSize" yaml:"max_size"`
	EncodingName string               `json:"encodingName,omitempty" yaml:"encoding_name,omitempty"`
}

// Validate checks that the limit is usable by a chunker.
func (l ModelLimit) Validate() error {
	if strings.TrimSpace(l.ModelID) == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "model limit", domainErrors.ErrEmptyModelID)
	}
	if !l.Unit.Valid() {
		return domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("model %q", l.ModelID), domainErrors.ErrUnknownUnit)
	}
	if l.MaxSize <= 0 {
		return domainErrors.WithContext(domainErrors.InvalidLimit(l.MaxSize), "model_id", l.ModelID)
	}
	switch {
	case l.Unit == segment.UnitTokens && l.EncodingName == "":
		return domainErrors.WithContext(
			domainErrors.NewError(domainErrors.CodeValidation, fmt.Sprintf("model %q counts tokens but names no encoding", l.ModelID), domainErrors.ErrUnknownEncoding),
			"model_id", l.ModelID)
	case l.Unit != segment.UnitTokens && l.EncodingName != "":
		return domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("model %q sets encoding %q but counts %s", l.ModelID, l.EncodingName, l.Unit), nil)
	}
	return nil
}

// Matches reports whether id names this model by either identifier.
func (l ModelLimit) Matches(id string) bool {
	return id != "" && (l.ModelID == id || l.APIModelID == id)
}

// String returns a compact description such as "tts-1 (openai, 4096 characters)".
func (l ModelLimit) String() string {
	return fmt.Sprintf("%s (%s, %d %s)", l.ModelID, l.Provider, l.MaxSize, l.Unit)
}
