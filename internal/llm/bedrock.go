package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"github.com/mikey/llm-chat-backend/internal/params"
	"go.uber.org/zap"
)

// BedrockAPI is the subset of the Bedrock runtime client the chat models use
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockLLM is a plain (non-retrieval) chat model over a Bedrock model.
type BedrockLLM struct {
	client           BedrockAPI
	modelID          string
	family           core.BedrockModelFamily
	modelParams      params.ModelParams
	promptTemplate   string
	memory           *memory.ConversationMemory
	guardrailID      string
	guardrailVersion string
	verbose          bool
	logger           *zap.Logger
}

// NewBedrockLLM creates a plain Bedrock chat model.
func NewBedrockLLM(
	client BedrockAPI,
	modelID string,
	family core.BedrockModelFamily,
	modelParams params.ModelParams,
	promptTemplate string,
	mem *memory.ConversationMemory,
	guardrailID, guardrailVersion string,
	verbose bool,
	logger *zap.Logger,
) *BedrockLLM {
	return &BedrockLLM{
		client:           client,
		modelID:          modelID,
		family:           family,
		modelParams:      modelParams,
		promptTemplate:   promptTemplate,
		memory:           mem,
		guardrailID:      guardrailID,
		guardrailVersion: guardrailVersion,
		verbose:          verbose,
		logger:           logger,
	}
}

// ModelParams exposes the sanitized parameter set.
func (m *BedrockLLM) ModelParams() params.ModelParams {
	return m.modelParams
}

// Generate implements core.ChatModel.
func (m *BedrockLLM) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
	answer, err := m.invoke(ctx, question, "")
	if err != nil {
		return nil, err
	}
	m.saveExchange(ctx, question, answer)
	return &core.ChatResult{Answer: answer}, nil
}

// invoke runs one InvokeModel round trip with the given retrieved context.
func (m *BedrockLLM) invoke(ctx context.Context, question, docContext string) (string, error) {
	prompt := assemblePrompt(ctx, m.promptTemplate, m.memory, docContext, question, m.logger)
	if m.verbose {
		m.logger.Debug("Rendered prompt", zap.String("prompt", prompt))
	}

	payload, err := BuildBedrockPayload(m.family, m.modelID, prompt, m.modelParams.ToMap(true))
	if err != nil {
		return "", err
	}

	in := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	}
	if m.guardrailID != "" {
		in.GuardrailIdentifier = aws.String(m.guardrailID)
		in.GuardrailVersion = aws.String(m.guardrailVersion)
	}

	out, err := m.client.InvokeModel(ctx, in)
	if err != nil {
		return "", core.NewLLMBuildError(err, "Bedrock model invocation failed")
	}

	answer, err := ParseBedrockResponse(m.family, m.modelID, out.Body)
	if err != nil {
		return "", core.NewLLMBuildError(err, "failed to parse Bedrock model response")
	}
	return answer, nil
}

// saveExchange persists the exchange; a history write failure loses memory,
// not the answer
func (m *BedrockLLM) saveExchange(ctx context.Context, question, answer string) {
	if m.memory == nil {
		return
	}
	if err := m.memory.SaveExchange(ctx, question, answer); err != nil {
		m.logger.Error("Failed to persist conversation exchange", zap.Error(err))
	}
}
