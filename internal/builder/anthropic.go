package builder

import (
	"context"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
	"github.com/mikey/llm-chat-backend/internal/llm"
	"github.com/mikey/llm-chat-backend/internal/params"
)

// AnthropicBuilder builds chat models served by the Anthropic API.
type AnthropicBuilder struct {
	*Builder
	promptOverride string
}

// NewAnthropicBuilder creates an Anthropic builder.
func NewAnthropicBuilder(base *Builder, promptOverride string) *AnthropicBuilder {
	return &AnthropicBuilder{Builder: base, promptOverride: promptOverride}
}

// SetLLMModel is the terminal build step: it resolves the API key and the
// model defaults and constructs the chat model.
func (b *AnthropicBuilder) SetLLMModel(ctx context.Context) error {
	modelID := b.UseCaseConfig.LlmParams.ModelID
	if modelID == "" {
		return core.NewValidationError("use case configuration has no Anthropic model id")
	}

	if err := b.CheckBuildErrors(); err != nil {
		return err
	}

	if b.ModelDefaults == nil {
		if err := b.SetModelDefaults(ctx, core.ProviderAnthropic, modelID); err != nil {
			return err
		}
	}

	apiKey, err := resolveAPIKey(ctx, b.Cfg.GetString("secrets.api_key_id"), b.SecretSource)
	if err != nil {
		return err
	}

	temperature, maxTokens, stops, err := genericModelParams(core.ProviderAnthropic, b.UseCaseConfig.LlmParams, b.ModelDefaults)
	if err != nil {
		return err
	}

	var kb = b.KnowledgeBase
	if !b.RAGEnabled {
		kb = nil
	}
	b.LLMModel = llm.NewAnthropicLLM(
		apiKey,
		modelID,
		temperature,
		maxTokens,
		stops,
		b.PromptTemplate(b.promptOverride),
		b.ConversationMemory,
		kb,
		b.Logger,
	)
	return nil
}

// resolveAPIKey fetches the provider credential referenced by the
// deployment configuration.
func resolveAPIKey(ctx context.Context, secretID string, src core.SecretSource) (string, error) {
	if secretID == "" {
		return "", core.NewConfigurationError("provider API key secret is not configured for this deployment")
	}
	key, err := src.GetSecret(ctx, secretID)
	if err != nil {
		return "", core.NewConfigurationError("failed to resolve the provider API key: %v", err)
	}
	return key, nil
}

// genericModelParams extracts the provider-agnostic generation parameters
// recognized by the non-Bedrock providers: temperature, max_tokens and user
// stop sequences (merged with the recorded baseline). Anything else in the
// parameter blob is rejected, naming the offending key.
func genericModelParams(provider core.LLMProvider, lp core.LlmParams, md *defaults.ModelDefaults) (float64, int, []string, error) {
	temperature := md.DefaultTemperature
	baseline := md.StopSequences
	if lp.Temperature != nil {
		temperature = *lp.Temperature
	}

	maxTokens := 0
	var userStops []string
	for k, v := range lp.ModelParams {
		switch k {
		case "temperature":
			f, ok := asFloat(v)
			if !ok {
				return 0, 0, nil, core.NewValidationError("model parameter %q is not numeric: %v", k, v)
			}
			temperature = f
		case "max_tokens", "max_tokens_to_sample":
			f, ok := asFloat(v)
			if !ok {
				return 0, 0, nil, core.NewValidationError("model parameter %q is not numeric: %v", k, v)
			}
			maxTokens = int(f)
		case "stop_sequences":
			switch list := v.(type) {
			case []any:
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						return 0, 0, nil, core.NewValidationError("model parameter %q must be a list of strings: %v", k, v)
					}
					userStops = append(userStops, s)
				}
			case []string:
				userStops = list
			default:
				return 0, 0, nil, core.NewValidationError("model parameter %q must be a list of strings: %v", k, v)
			}
		default:
			return 0, 0, nil, core.NewValidationError(
				"unrecognized model parameter %q for the %s provider", k, provider)
		}
	}

	return temperature, maxTokens, params.MergeStopSequences(baseline, userStops), nil
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
