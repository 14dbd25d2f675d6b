// Package clients exposes the per-provider chat clients: the facade that
// validates the environment and the incoming event, loads the stored
// use-case configuration and drives the builder to a ready chat model.
package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/llm"
	"go.uber.org/zap"
)

// ChatClient validates a request and constructs its chat model.
type ChatClient interface {
	CheckEnv() error
	CheckEvent(ev *core.RequestEvent) error
	GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error)
}

// Deps bundles everything a provider client needs.
type Deps struct {
	Cfg             *config.Config
	Logger          *zap.Logger
	ConfigSource    core.ConfigSource
	BuilderDeps     builder.Deps
	BedrockClient   llm.BedrockAPI
	SageMakerClient llm.SageMakerAPI
}

// New creates the chat client for the configured provider.
func New(provider core.LLMProvider, deps Deps) (ChatClient, error) {
	switch provider {
	case core.ProviderBedrock:
		return NewBedrockChatClient(deps), nil
	case core.ProviderAnthropic:
		return NewAnthropicChatClient(deps), nil
	case core.ProviderHuggingFace:
		return NewHuggingFaceChatClient(deps), nil
	case core.ProviderSageMaker:
		return NewSageMakerChatClient(deps), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// baseClient carries the checks shared by every provider.
type baseClient struct {
	deps Deps
}

// requiredConfigKeys are the deployment settings every provider needs.
var requiredConfigKeys = []string{
	"usecase.config_param",
	"tables.model_info",
	"tables.conversation",
}

// checkEnv verifies the shared deployment configuration plus any
// provider-specific keys.
func (c *baseClient) checkEnv(extraKeys ...string) error {
	var missing []string
	for _, key := range append(append([]string{}, requiredConfigKeys...), extraKeys...) {
		if c.deps.Cfg.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return core.NewConfigurationError(
			"missing required deployment configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckEvent verifies the event payload and assigns a conversation id when
// the caller omitted one.
func (c *baseClient) CheckEvent(ev *core.RequestEvent) error {
	if ev == nil {
		return core.NewValidationError("event body is empty")
	}
	if ev.Question == "" {
		return core.NewValidationError("event is missing the required question field")
	}
	if ev.ConversationID == "" {
		ev.ConversationID = uuid.NewString()
		c.deps.Logger.Debug("Generated conversation id",
			zap.String("conversation_id", ev.ConversationID))
	}
	return nil
}

// loadConfig fetches the stored use-case configuration.
func (c *baseClient) loadConfig(ctx context.Context) (*core.UseCaseConfig, error) {
	key := c.deps.Cfg.GetString("usecase.config_param")
	ucConfig, err := c.deps.ConfigSource.GetConfig(ctx, key)
	if err != nil {
		return nil, core.NewConfigurationError("failed to load use case configuration from %q: %v", key, err)
	}
	return ucConfig, nil
}

// newBuilder starts a builder for the loaded configuration.
func (c *baseClient) newBuilder(ucConfig *core.UseCaseConfig, ev *core.RequestEvent) *builder.Builder {
	return builder.New(c.deps.BuilderDeps, ucConfig, ev.UserContextToken)
}
