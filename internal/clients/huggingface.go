package clients

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/core"
)

// HuggingFaceChatClient builds chat models backed by a HuggingFace
// inference endpoint.
type HuggingFaceChatClient struct {
	baseClient
}

// NewHuggingFaceChatClient creates a HuggingFace chat client.
func NewHuggingFaceChatClient(deps Deps) *HuggingFaceChatClient {
	return &HuggingFaceChatClient{baseClient: baseClient{deps: deps}}
}

// CheckEnv implements ChatClient. HuggingFace additionally needs the API
// key secret reference and the inference endpoint URL.
func (c *HuggingFaceChatClient) CheckEnv() error {
	return c.checkEnv("secrets.api_key_id", "huggingface.endpoint")
}

// GetModel implements ChatClient.
func (c *HuggingFaceChatClient) GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error) {
	if err := c.CheckEvent(ev); err != nil {
		return nil, err
	}
	ucConfig, err := c.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	b := builder.NewHuggingFaceBuilder(c.newBuilder(ucConfig, ev), ev.PromptTemplate)
	if err := b.SetKnowledgeBase(ctx); err != nil {
		return nil, err
	}
	b.SetMemoryConstants(core.ProviderHuggingFace)
	if err := b.SetConversationMemory(ctx, userID, ev.ConversationID); err != nil {
		return nil, err
	}
	if err := b.SetLLMModel(ctx); err != nil {
		return nil, err
	}
	ev.Question = b.ProcessQuestion(ev.Question)
	return b.LLMModel, nil
}
