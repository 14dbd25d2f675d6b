package clients

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/core"
)

// SageMakerChatClient builds chat models backed by a SageMaker inference
// endpoint.
type SageMakerChatClient struct {
	baseClient
}

// NewSageMakerChatClient creates a SageMaker chat client.
func NewSageMakerChatClient(deps Deps) *SageMakerChatClient {
	return &SageMakerChatClient{baseClient: baseClient{deps: deps}}
}

// CheckEnv implements ChatClient.
func (c *SageMakerChatClient) CheckEnv() error {
	return c.checkEnv()
}

// GetModel implements ChatClient. SageMaker resolves model defaults as an
// explicit step keyed by the endpoint name.
func (c *SageMakerChatClient) GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error) {
	if err := c.CheckEvent(ev); err != nil {
		return nil, err
	}
	ucConfig, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	sp := ucConfig.LlmParams.SageMakerLlmParams
	if sp == nil || sp.EndpointName == "" {
		return nil, core.NewValidationError("use case configuration has no SageMaker endpoint name")
	}

	b := builder.NewSageMakerBuilder(c.newBuilder(ucConfig, ev), c.deps.SageMakerClient, ev.PromptTemplate)
	if err := b.SetKnowledgeBase(ctx); err != nil {
		return nil, err
	}
	b.SetMemoryConstants(core.ProviderSageMaker)
	if err := b.SetConversationMemory(ctx, userID, ev.ConversationID); err != nil {
		return nil, err
	}
	if err := b.SetModelDefaults(ctx, core.ProviderSageMaker, sp.EndpointName); err != nil {
		return nil, err
	}
	if err := b.SetLLMModel(ctx); err != nil {
		return nil, err
	}
	ev.Question = b.ProcessQuestion(ev.Question)
	return b.LLMModel, nil
}
