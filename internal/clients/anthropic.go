package clients

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/core"
)

// AnthropicChatClient builds chat models backed by the Anthropic API.
type AnthropicChatClient struct {
	baseClient
}

// NewAnthropicChatClient creates an Anthropic chat client.
func NewAnthropicChatClient(deps Deps) *AnthropicChatClient {
	return &AnthropicChatClient{baseClient: baseClient{deps: deps}}
}

// CheckEnv implements ChatClient. Anthropic additionally needs the API key
// secret reference.
func (c *AnthropicChatClient) CheckEnv() error {
	return c.checkEnv("secrets.api_key_id")
}

// GetModel implements ChatClient.
func (c *AnthropicChatClient) GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error) {
	if err := c.CheckEvent(ev); err != nil {
		return nil, err
	}
	ucConfig, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	b := builder.NewAnthropicBuilder(c.newBuilder(ucConfig, ev), ev.PromptTemplate)
	if err := b.SetKnowledgeBase(ctx); err != nil {
		return nil, err
	}
	b.SetMemoryConstants(core.ProviderAnthropic)
	if err := b.SetConversationMemory(ctx, userID, ev.ConversationID); err != nil {
		return nil, err
	}
	if err := b.SetLLMModel(ctx); err != nil {
		return nil, err
	}
	ev.Question = b.ProcessQuestion(ev.Question)
	return b.LLMModel, nil
}
