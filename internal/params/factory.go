package params

import (
	"strings"

	"github.com/mikey/llm-chat-backend/internal/core"
)

// AdapterFactory maps (model family, model id) to the sanitizer for that
// model's parameter schema. The table is built once at construction and
// never mutated; lookups fall back to the family's "default" entry.
type AdapterFactory struct {
	adapters map[core.BedrockModelFamily]map[string]Sanitizer
}

const defaultAdapterKey = "default"

// NewAdapterFactory builds the sanitizer lookup table. Claude 3 model ids
// override the Anthropic default because they use the messages schema;
// Cohere Command text models override the generic Cohere entry.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{
		adapters: map[core.BedrockModelFamily]map[string]Sanitizer{
			core.FamilyAmazon: {
				defaultAdapterKey: ConstructAmazon,
			},
			core.FamilyAnthropic: {
				defaultAdapterKey:                           ConstructAnthropicV1,
				"anthropic.claude-3-sonnet-20240229-v1:0":   ConstructAnthropicV3,
				"anthropic.claude-3-haiku-20240307-v1:0":    ConstructAnthropicV3,
				"anthropic.claude-3-opus-20240229-v1:0":     ConstructAnthropicV3,
				"anthropic.claude-3-5-sonnet-20240620-v1:0": ConstructAnthropicV3,
				"anthropic.claude-3-5-sonnet-20241022-v2:0": ConstructAnthropicV3,
				"anthropic.claude-3-5-haiku-20241022-v1:0":  ConstructAnthropicV3,
			},
			core.FamilyAI21: {
				defaultAdapterKey: ConstructAI21,
			},
			core.FamilyMeta: {
				defaultAdapterKey: ConstructMeta,
			},
			core.FamilyCohere: {
				defaultAdapterKey:               ConstructCohere,
				"cohere.command-text-v14":       ConstructCohereCommand,
				"cohere.command-light-text-v14": ConstructCohereCommand,
			},
			core.FamilyMistral: {
				defaultAdapterKey: ConstructMistral,
			},
		},
	}
}

// GetAdapter resolves the sanitizer for a model. An exact model-id entry
// wins; otherwise the family default applies. An unknown family is an
// error. The lookup sees the bare vendor-qualified id, so inference
// profiles and ARNs resolve the same sanitizer as the model id they wrap.
func (f *AdapterFactory) GetAdapter(family core.BedrockModelFamily, modelID string) (Sanitizer, error) {
	sub, ok := f.adapters[family]
	if !ok {
		return nil, core.NewValidationError("model family %q is not supported", family)
	}
	if s, ok := sub[NormalizeModelID(modelID)]; ok {
		return s, nil
	}
	return sub[defaultAdapterKey], nil
}

// NormalizeModelID reduces an inference-profile id or a model ARN to the
// bare vendor-qualified model id ("us.anthropic.claude..." and
// "arn:...:foundation-model/anthropic.claude..." both become
// "anthropic.claude...").
func NormalizeModelID(modelID string) string {
	id := modelID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		// ARNs end with the plain or region-prefixed model id
		id = id[idx+1:]
	}
	if parts := strings.Split(id, "."); len(parts) > 2 {
		id = strings.Join(parts[len(parts)-2:], ".")
	}
	return id
}

// FamilyForModelID derives the model family from a Bedrock model id, whose
// leading segment names the vendor (for example "amazon.titan-text-lite-v1").
// Inference-profile region prefixes and ARN paths are stripped first.
func FamilyForModelID(modelID string) (core.BedrockModelFamily, error) {
	vendor, _, _ := strings.Cut(NormalizeModelID(modelID), ".")
	switch strings.ToLower(vendor) {
	case "amazon":
		return core.FamilyAmazon, nil
	case "anthropic":
		return core.FamilyAnthropic, nil
	case "ai21":
		return core.FamilyAI21, nil
	case "meta":
		return core.FamilyMeta, nil
	case "cohere":
		return core.FamilyCohere, nil
	case "mistral":
		return core.FamilyMistral, nil
	default:
		return "", core.NewValidationError("model id %q does not belong to a supported Bedrock model family", modelID)
	}
}
