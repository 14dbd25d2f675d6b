package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"go.uber.org/zap"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"

	defaultAnthropicMaxTokens = 1024
)

// AnthropicLLM is a chat model over the Anthropic messages API. A non-nil
// knowledge base makes it retrieval-augmented.
type AnthropicLLM struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	modelID        string
	temperature    float64
	maxTokens      int
	stopSequences  []string
	promptTemplate string
	memory         *memory.ConversationMemory
	knowledgeBase  knowledgebase.KnowledgeBase
	logger         *zap.Logger
}

// NewAnthropicLLM creates an Anthropic chat model.
func NewAnthropicLLM(
	apiKey, modelID string,
	temperature float64,
	maxTokens int,
	stopSequences []string,
	promptTemplate string,
	mem *memory.ConversationMemory,
	kb knowledgebase.KnowledgeBase,
	logger *zap.Logger,
) *AnthropicLLM {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicLLM{
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		baseURL:        anthropicBaseURL,
		apiKey:         apiKey,
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

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   float64            `json:"temperature"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements core.ChatModel.
func (m *AnthropicLLM) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
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

	payload, err := json.Marshal(anthropicRequest{
		Model:         m.modelID,
		MaxTokens:     m.maxTokens,
		Temperature:   m.temperature,
		StopSequences: m.stopSequences,
		Messages:      []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build Anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", m.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, core.NewLLMBuildError(err, "Anthropic model invocation failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewLLMBuildError(err, "failed to read Anthropic response")
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, core.NewLLMBuildError(err, "failed to parse Anthropic response")
	}
	if resp.StatusCode != http.StatusOK {
		errMsg := resp.Status
		if parsed.Error != nil {
			errMsg = parsed.Error.Message
		}
		return nil, core.NewLLMBuildError(
			fmt.Errorf("status %d: %s", resp.StatusCode, errMsg),
			"Anthropic model invocation failed")
	}
	if len(parsed.Content) == 0 {
		return nil, core.NewLLMBuildError(nil, "empty response from Anthropic model")
	}
	answer := parsed.Content[0].Text

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
