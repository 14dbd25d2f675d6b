package builder

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/llm"
	"github.com/mikey/llm-chat-backend/internal/params"
)

// BedrockBuilder builds chat models served by Amazon Bedrock.
type BedrockBuilder struct {
	*Builder
	adapterFactory *params.AdapterFactory
	bedrockClient  llm.BedrockAPI
	promptOverride string
}

// NewBedrockBuilder creates a Bedrock builder.
func NewBedrockBuilder(base *Builder, adapterFactory *params.AdapterFactory, bedrockClient llm.BedrockAPI, promptOverride string) *BedrockBuilder {
	return &BedrockBuilder{
		Builder:        base,
		adapterFactory: adapterFactory,
		bedrockClient:  bedrockClient,
		promptOverride: promptOverride,
	}
}

// modelID resolves the model identifier to invoke: an inference profile
// wins over a plain model id.
func (b *BedrockBuilder) modelID() string {
	bp := b.UseCaseConfig.LlmParams.BedrockLlmParams
	if bp == nil {
		return b.UseCaseConfig.LlmParams.ModelID
	}
	if bp.InferenceProfileID != "" {
		return bp.InferenceProfileID
	}
	if bp.ModelARN != "" {
		return bp.ModelARN
	}
	if bp.ModelID != "" {
		return bp.ModelID
	}
	return b.UseCaseConfig.LlmParams.ModelID
}

// SetLLMModel is the terminal build step: it resolves the model defaults,
// sanitizes the model parameters through the family adapter and constructs
// the plain or retrieval chat model.
func (b *BedrockBuilder) SetLLMModel(ctx context.Context) error {
	modelID := b.modelID()
	if modelID == "" {
		return core.NewValidationError("use case configuration has no Bedrock model id")
	}

	family, err := params.FamilyForModelID(modelID)
	if err != nil {
		return err
	}

	// accumulated user-facing problems are reported before the defaults
	// fetch so a missing model-info record cannot mask them
	if err := b.CheckBuildErrors(); err != nil {
		return err
	}

	// model defaults are resolved here rather than as an explicit earlier
	// step; the defaults record is keyed by the provider, not the family
	if b.ModelDefaults == nil {
		if err := b.SetModelDefaults(ctx, core.ProviderBedrock, modelID); err != nil {
			return err
		}
	}

	sanitizer, err := b.adapterFactory.GetAdapter(family, modelID)
	if err != nil {
		return err
	}
	rawParams := mergedRawParams(b.UseCaseConfig.LlmParams)
	modelParams, err := sanitizer(rawParams, b.ModelDefaults)
	if err != nil {
		return err
	}

	var guardrailID, guardrailVersion string
	if bp := b.UseCaseConfig.LlmParams.BedrockLlmParams; bp != nil {
		guardrailID = bp.GuardrailIdentifier
		guardrailVersion = bp.GuardrailVersion
	}

	base := llm.NewBedrockLLM(
		b.bedrockClient,
		modelID,
		family,
		modelParams,
		b.PromptTemplate(b.promptOverride),
		b.ConversationMemory,
		guardrailID, guardrailVersion,
		b.UseCaseConfig.LlmParams.Verbose,
		b.Logger,
	)

	if b.RAGEnabled && b.KnowledgeBase != nil {
		b.LLMModel = llm.NewBedrockRetrievalLLM(base, b.KnowledgeBase)
	} else {
		b.LLMModel = base
	}
	return nil
}

// mergedRawParams overlays the top-level temperature onto the raw model
// parameter blob so the sanitizer sees a single parameter set.
func mergedRawParams(lp core.LlmParams) map[string]any {
	raw := make(map[string]any, len(lp.ModelParams)+1)
	for k, v := range lp.ModelParams {
		raw[k] = v
	}
	if lp.Temperature != nil {
		if _, ok := raw["temperature"]; !ok {
			raw["temperature"] = *lp.Temperature
		}
	}
	return raw
}
