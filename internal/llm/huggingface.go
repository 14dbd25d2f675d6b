package llm

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// HuggingFaceLLM is a chat model over a HuggingFace text-generation
// inference endpoint, spoken through its OpenAI-compatible chat-completion
// surface. A non-nil knowledge base makes it retrieval-augmented.
type HuggingFaceLLM struct {
	client         *openai.Client
	modelID        string
	temperature    float64
	maxTokens      int
	stopSequences  []string
	promptTemplate string
	memory         *memory.ConversationMemory
	knowledgeBase  knowledgebase.KnowledgeBase
	logger         *zap.Logger
}

// NewHuggingFaceLLM creates a HuggingFace chat model against endpointURL.
func NewHuggingFaceLLM(
	apiKey, endpointURL, modelID string,
	temperature float64,
	maxTokens int,
	stopSequences []string,
	promptTemplate string,
	mem *memory.ConversationMemory,
	kb knowledgebase.KnowledgeBase,
	logger *zap.Logger,
) *HuggingFaceLLM {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = endpointURL
	client := openai.NewClientWithConfig(clientConfig)

	return &HuggingFaceLLM{
		client:         client,
		modelID:        modelID,
		temperature:    temperature,
		maxTokens:      maxTokens,
		stopSequences:  stopSequences,
		promptTemplate: promptTemplate,
		memory:         mem,
		knowledgeBase:  kb,
		logger:         logger,
	}
}

// Generate implements core.ChatModel.
func (m *HuggingFaceLLM) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
	var docs []core.SourceDocument
	docContext := ""
	if m.knowledgeBase != nil {
		retrieved, err := m.knowledgeBase.Retrieve(ctx, question)
		if err != nil {
			m.logger.Warn("Knowledge base retrieval failed, answering without documents", zap.Error(err))
		} else {
			docs = retrieved
			docContext = documentContext(docs)
		}
	}

	prompt := assemblePrompt(ctx, m.promptTemplate, m.memory, docContext, question, m.logger)

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.modelID,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: float32(m.temperature),
		MaxTokens:   m.maxTokens,
		Stop:        m.stopSequences,
	})
	if err != nil {
		return nil, core.NewLLMBuildError(err, "HuggingFace endpoint invocation failed")
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewLLMBuildError(nil, "empty response from HuggingFace endpoint")
	}
	answer := resp.Choices[0].Message.Content

	if m.memory != nil {
		if err := m.memory.SaveExchange(ctx, question, answer); err != nil {
			m.logger.Error("Failed to persist conversation exchange", zap.Error(err))
		}
	}

	result := &core.ChatResult{Answer: answer}
	if m.knowledgeBase != nil && m.knowledgeBase.ReturnSourceDocs() {
		result.SourceDocuments = docs
	}
	return result, nil
}
