package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"go.uber.org/zap"
)

// SageMakerAPI is the subset of the SageMaker runtime client the chat
// model uses
type SageMakerAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// SageMakerLLM is a chat model over a SageMaker inference endpoint. The
// request body comes from the configured input payload schema, with
// <<prompt>> and <<temperature>> placeholders filled per request; the
// answer is extracted from the response with a dotted JSON path. A non-nil
// knowledge base makes it retrieval-augmented.
type SageMakerLLM struct {
	client         SageMakerAPI
	endpointName   string
	inputSchema    map[string]any
	outputJSONPath string
	temperature    float64
	promptTemplate string
	memory         *memory.ConversationMemory
	knowledgeBase  knowledgebase.KnowledgeBase
	logger         *zap.Logger
}

// NewSageMakerLLM creates a SageMaker chat model.
func NewSageMakerLLM(
	client SageMakerAPI,
	endpointName string,
	inputSchema map[string]any,
	outputJSONPath string,
	temperature float64,
	promptTemplate string,
	mem *memory.ConversationMemory,
	kb knowledgebase.KnowledgeBase,
	logger *zap.Logger,
) *SageMakerLLM {
	return &SageMakerLLM{
		client:         client,
		endpointName:   endpointName,
		inputSchema:    inputSchema,
		outputJSONPath: outputJSONPath,
		temperature:    temperature,
		promptTemplate: promptTemplate,
		memory:         mem,
		knowledgeBase:  kb,
		logger:         logger,
	}
}

// Generate implements core.ChatModel.
func (m *SageMakerLLM) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
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

	payload, err := json.Marshal(substitutePlaceholders(m.inputSchema, prompt, m.temperature))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SageMaker request payload: %w", err)
	}

	out, err := m.client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(m.endpointName),
		Body:         payload,
		ContentType:  aws.String("application/json"),
		Accept:       aws.String("application/json"),
	})
	if err != nil {
		return nil, core.NewLLMBuildError(err, "SageMaker endpoint invocation failed")
	}

	answer, err := extractByJSONPath(out.Body, m.outputJSONPath)
	if err != nil {
		return nil, core.NewLLMBuildError(err, "failed to extract answer from SageMaker response")
	}

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

// substitutePlaceholders walks the input schema replacing <<prompt>> and
// <<temperature>> markers wherever they appear.
func substitutePlaceholders(schema map[string]any, prompt string, temperature float64) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = substituteValue(v, prompt, temperature)
	}
	return out
}

func substituteValue(v any, prompt string, temperature float64) any {
	switch val := v.(type) {
	case string:
		if val == "<<prompt>>" {
			return prompt
		}
		if val == "<<temperature>>" {
			return temperature
		}
		return val
	case map[string]any:
		return substitutePlaceholders(val, prompt, temperature)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substituteValue(item, prompt, temperature)
		}
		return out
	default:
		return v
	}
}

// extractByJSONPath resolves a dotted path with optional [n] indexes, for
// example "[0].generated_text" or "outputs.text".
func extractByJSONPath(body []byte, path string) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("response is not valid JSON: %w", err)
	}

	current := doc
	for _, segment := range strings.Split(path, ".") {
		for segment != "" {
			if strings.HasPrefix(segment, "[") {
				end := strings.Index(segment, "]")
				if end < 0 {
					return "", fmt.Errorf("malformed index in path %q", path)
				}
				idx, err := strconv.Atoi(segment[1:end])
				if err != nil {
					return "", fmt.Errorf("malformed index in path %q", path)
				}
				list, ok := current.([]any)
				if !ok || idx >= len(list) {
					return "", fmt.Errorf("path %q does not resolve in response", path)
				}
				current = list[idx]
				segment = segment[end+1:]
				continue
			}

			key := segment
			rest := ""
			if open := strings.Index(segment, "["); open >= 0 {
				key = segment[:open]
				rest = segment[open:]
			}
			obj, ok := current.(map[string]any)
			if !ok {
				return "", fmt.Errorf("path %q does not resolve in response", path)
			}
			current, ok = obj[key]
			if !ok {
				return "", fmt.Errorf("path %q does not resolve in response", path)
			}
			segment = rest
		}
	}

	text, ok := current.(string)
	if !ok {
		return "", fmt.Errorf("path %q does not resolve to a string", path)
	}
	return text, nil
}
