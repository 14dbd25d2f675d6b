package builder

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/llm"
)

// SageMakerBuilder builds chat models served by a SageMaker inference
// endpoint. Unlike the Bedrock-style builders it requires an explicit
// SetModelDefaults call before SetLLMModel, because the defaults record is
// keyed by the endpoint name rather than a public model id.
type SageMakerBuilder struct {
	*Builder
	sagemakerClient llm.SageMakerAPI
	promptOverride  string
}

// NewSageMakerBuilder creates a SageMaker builder.
func NewSageMakerBuilder(base *Builder, sagemakerClient llm.SageMakerAPI, promptOverride string) *SageMakerBuilder {
	return &SageMakerBuilder{
		Builder:         base,
		sagemakerClient: sagemakerClient,
		promptOverride:  promptOverride,
	}
}

// SetLLMModel is the terminal build step.
func (b *SageMakerBuilder) SetLLMModel(ctx context.Context) error {
	sp := b.UseCaseConfig.LlmParams.SageMakerLlmParams
	if sp == nil || sp.EndpointName == "" {
		return core.NewValidationError("use case configuration has no SageMaker endpoint name")
	}
	if sp.ModelOutputJSONPath == "" {
		return core.NewValidationError("use case configuration has no SageMaker output JSON path")
	}

	if err := b.CheckBuildErrors(); err != nil {
		return err
	}

	if b.ModelDefaults == nil {
		return core.NewConfigurationError("model defaults must be resolved before the SageMaker model is constructed")
	}

	temperature, _, _, err := genericModelParams(core.ProviderSageMaker, b.UseCaseConfig.LlmParams, b.ModelDefaults)
	if err != nil {
		return err
	}

	var kb = b.KnowledgeBase
	if !b.RAGEnabled {
		kb = nil
	}
	b.LLMModel = llm.NewSageMakerLLM(
		b.sagemakerClient,
		sp.EndpointName,
		sp.ModelInputPayloadSchema,
		sp.ModelOutputJSONPath,
		temperature,
		b.PromptTemplate(b.promptOverride),
		b.ConversationMemory,
		kb,
		b.Logger,
	)
	return nil
}
