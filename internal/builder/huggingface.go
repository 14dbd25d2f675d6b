package builder

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/llm"
)

// HuggingFaceBuilder builds chat models served by a HuggingFace inference
// endpoint.
type HuggingFaceBuilder struct {
	*Builder
	promptOverride string
}

// NewHuggingFaceBuilder creates a HuggingFace builder.
func NewHuggingFaceBuilder(base *Builder, promptOverride string) *HuggingFaceBuilder {
	return &HuggingFaceBuilder{Builder: base, promptOverride: promptOverride}
}

// SetLLMModel is the terminal build step: it resolves the API key, the
// endpoint and the model defaults, then constructs the chat model.
func (b *HuggingFaceBuilder) SetLLMModel(ctx context.Context) error {
	modelID := b.UseCaseConfig.LlmParams.ModelID
	if modelID == "" {
		return core.NewValidationError("use case configuration has no HuggingFace model id")
	}

	endpointURL := b.Cfg.GetString("huggingface.endpoint")
	if endpointURL == "" {
		return core.NewConfigurationError("HuggingFace inference endpoint is not configured for this deployment")
	}

	if err := b.CheckBuildErrors(); err != nil {
		return err
	}

	if b.ModelDefaults == nil {
		if err := b.SetModelDefaults(ctx, core.ProviderHuggingFace, modelID); err != nil {
			return err
		}
	}

	apiKey, err := resolveAPIKey(ctx, b.Cfg.GetString("secrets.api_key_id"), b.SecretSource)
	if err != nil {
		return err
	}

	temperature, maxTokens, stops, err := genericModelParams(core.ProviderHuggingFace, b.UseCaseConfig.LlmParams, b.ModelDefaults)
	if err != nil {
		return err
	}

	var kb = b.KnowledgeBase
	if !b.RAGEnabled {
		kb = nil
	}
	b.LLMModel = llm.NewHuggingFaceLLM(
		apiKey,
		endpointURL,
		modelID,
		temperature,
		maxTokens,
		stops,
		b.PromptTemplate(b.promptOverride),
		b.ConversationMemory,
		kb,
		b.Logger,
	)
	return nil
}
