package provider

import "github.com/jbctechsolutions/ttsplit/internal/domain/segment"

// DefaultLimits returns the built-in table of provider input limits.
// Each call returns a fresh slice.
func DefaultLimits() []ModelLimit {
	return []ModelLimit{
		// Character-limited
		{ModelID: "openai-tts-1", APIModelID: "tts-1", Provider: ProviderOpenAI, Unit: segment.UnitCharacters, MaxSize: 4096},
		{ModelID: "openai-tts-1-hd", APIModelID: "tts-1-hd", Provider: ProviderOpenAI, Unit: segment.UnitCharacters, MaxSize: 4096},
		{ModelID: "elevenlabs-multilingual-v2", APIModelID: "eleven_multilingual_v2", Provider: ProviderElevenLabs, Unit: segment.UnitCharacters, MaxSize: 10000},
		{ModelID: "elevenlabs-turbo-v2-5", APIModelID: "eleven_turbo_v2_5", Provider: ProviderElevenLabs, Unit: segment.UnitCharacters, MaxSize: 40000},
		{ModelID: "elevenlabs-flash-v2-5", APIModelID: "eleven_flash_v2_5", Provider: ProviderElevenLabs, Unit: segment.UnitCharacters, MaxSize: 40000},
		{ModelID: "amazon-polly-neural", APIModelID: "neural", Provider: ProviderAmazon, Unit: segment.UnitCharacters, MaxSize: 3000},
		{ModelID: "amazon-polly-standard", APIModelID: "standard", Provider: ProviderAmazon, Unit: segment.UnitCharacters, MaxSize: 3000},

		// Byte-limited
		{ModelID: "google-standard", APIModelID: "google-cloud-tts-standard", Provider: ProviderGoogle, Unit: segment.UnitBytes, MaxSize: 5000},
		{ModelID: "google-wavenet", APIModelID: "google-cloud-tts-wavenet", Provider: ProviderGoogle, Unit: segment.UnitBytes, MaxSize: 5000},
		{ModelID: "google-neural2", APIModelID: "google-cloud-tts-neural2", Provider: ProviderGoogle, Unit: segment.UnitBytes, MaxSize: 5000},
		{ModelID: "google-chirp3-hd", APIModelID: "google-cloud-tts-chirp3-hd", Provider: ProviderGoogle, Unit: segment.UnitBytes, MaxSize: 5000},

		// Token-limited
		{ModelID: "openai-gpt-4o-mini-tts", APIModelID: "gpt-4o-mini-tts", Provider: ProviderOpenAI, Unit: segment.UnitTokens, MaxSize: 2000, EncodingName: "o200k_base"},
		{ModelID: "azure-gpt-4o-mini-tts", APIModelID: "azure-gpt-4o-mini-tts", Provider: ProviderAzure, Unit: segment.UnitTokens, MaxSize: 2000, EncodingName: "o200k_base"},
	}
}

// DefaultParagraphMaxChars is the chunk size used by the paragraph-mapped
// playback path when no model is named.
const DefaultParagraphMaxChars = 4000
