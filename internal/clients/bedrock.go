package clients

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/params"
)

// BedrockChatClient builds Bedrock chat models.
type BedrockChatClient struct {
	baseClient
	adapterFactory *params.AdapterFactory
}

// NewBedrockChatClient creates a Bedrock chat client.
func NewBedrockChatClient(deps Deps) *BedrockChatClient {
	return &BedrockChatClient{
		baseClient:     baseClient{deps: deps},
		adapterFactory: params.NewAdapterFactory(),
	}
}

// CheckEnv implements ChatClient.
func (c *BedrockChatClient) CheckEnv() error {
	return c.checkEnv()
}

// GetModel implements ChatClient: it loads the use-case configuration and
// drives the builder steps in order.
func (c *BedrockChatClient) GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error) {
	if err := c.CheckEvent(ev); err != nil {
		return nil, err
	}
	ucConfig, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	b := builder.NewBedrockBuilder(c.newBuilder(ucConfig, ev), c.adapterFactory, c.deps.BedrockClient, ev.PromptTemplate)
	if err := b.SetKnowledgeBase(ctx); err != nil {
		return nil, err
	}
	b.SetMemoryConstants(core.ProviderBedrock)
	if err := b.SetConversationMemory(ctx, userID, ev.ConversationID); err != nil {
		return nil, err
	}
	if err := b.SetLLMModel(ctx); err != nil {
		return nil, err
	}
	ev.Question = b.ProcessQuestion(ev.Question)
	return b.LLMModel, nil
}
