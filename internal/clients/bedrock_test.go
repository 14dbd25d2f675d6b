package clients

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-chat-backend/internal/builder"
	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/llm"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"github.com/mikey/llm-chat-backend/internal/utils"
)

type fakeConfigSource struct {
	cfg *core.UseCaseConfig
}

func (s *fakeConfigSource) GetConfig(ctx context.Context, key string) (*core.UseCaseConfig, error) {
	return s.cfg, nil
}

type fakeDefaultsSource struct {
	rec *defaults.Record
}

func (s *fakeDefaultsSource) GetItem(ctx context.Context, useCase core.UseCase, sortKey string) (*defaults.Record, error) {
	return s.rec, nil
}

type fakeHistoryStore struct{}

func (fakeHistoryStore) Get(ctx context.Context, userID, conversationID string, limit int) ([]core.Message, error) {
	return nil, nil
}
func (fakeHistoryStore) AppendExchange(ctx context.Context, userID, conversationID, humanMsg, aiMsg string) error {
	return nil
}
func (fakeHistoryStore) Clear(ctx context.Context, userID, conversationID string) error { return nil }

type fakeInvoker struct{}

func (fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"results":[{"outputText":"ok"}]}`)}, nil
}

func titanConfig() *core.UseCaseConfig {
	return &core.UseCaseConfig{
		UseCaseName: "chat",
		LlmParams: core.LlmParams{
			ModelProvider: core.ProviderBedrock,
			BedrockLlmParams: &core.BedrockLlmParams{
				ModelID: "amazon.titan-text-lite-v1",
			},
			RAGEnabled: false,
		},
		ConversationMemoryParams: &core.ConversationMemoryParams{
			ConversationMemoryType: core.MemoryDynamoDB,
		},
	}
}

func titanModelInfo() *defaults.Record {
	temp := 0.4
	return &defaults.Record{
		DefaultTemperature: &temp,
		Prompt:             "{history}\n\nHuman: {input}",
		StopSequences:      []string{"|"},
	}
}

func newTestDeps(t *testing.T, ucConfig *core.UseCaseConfig, rec *defaults.Record) Deps {
	t.Helper()
	v := config.NewEmptyViper()
	v.Set("usecase.config_param", "/chat/config")
	v.Set("tables.model_info", "model-info")
	v.Set("tables.conversation", "conversations")
	cfg := config.NewFromViper(v)
	logger := zap.NewNop()

	builderDeps := builder.Deps{
		Cfg:            cfg,
		Logger:         logger,
		KBFactory:      knowledgebase.NewFactory(cfg, logger, nil, nil),
		MemoryFactory:  memory.NewFactory(cfg, logger, fakeHistoryStore{}),
		DefaultsSource: &fakeDefaultsSource{rec: rec},
		TextProcessor:  utils.NewTextProcessor(logger),
	}
	return Deps{
		Cfg:           cfg,
		Logger:        logger,
		ConfigSource:  &fakeConfigSource{cfg: ucConfig},
		BuilderDeps:   builderDeps,
		BedrockClient: fakeInvoker{},
	}
}

func TestBedrockChatClientGetModel(t *testing.T) {
	t.Run("titan chat without rag yields a plain model", func(t *testing.T) {
		client := NewBedrockChatClient(newTestDeps(t, titanConfig(), titanModelInfo()))
		require.NoError(t, client.CheckEnv())

		ev := &core.RequestEvent{Question: "hello", ConversationID: "conv-1"}
		model, err := client.GetModel(context.Background(), ev, "user-1")
		require.NoError(t, err)

		bedrockModel, ok := model.(*llm.BedrockLLM)
		require.True(t, ok, "expected a plain Bedrock model, got %T", model)

		m := bedrockModel.ModelParams().ToMap(true)
		assert.Contains(t, m["stopSequences"], "|")
		assert.Equal(t, 0.4, m["temperature"])
	})

	t.Run("configured temperature wins over the recorded default", func(t *testing.T) {
		uc := titanConfig()
		temp := 0.9
		uc.LlmParams.Temperature = &temp

		client := NewBedrockChatClient(newTestDeps(t, uc, titanModelInfo()))
		ev := &core.RequestEvent{Question: "hello", ConversationID: "conv-1"}
		model, err := client.GetModel(context.Background(), ev, "user-1")
		require.NoError(t, err)

		bedrockModel := model.(*llm.BedrockLLM)
		assert.Equal(t, 0.9, bedrockModel.ModelParams().ToMap(true)["temperature"])
	})

	t.Run("claude 3 inference profile routes to the messages sanitizer", func(t *testing.T) {
		uc := titanConfig()
		uc.LlmParams.BedrockLlmParams = &core.BedrockLlmParams{
			InferenceProfileID: "us.anthropic.claude-3-haiku-20240307-v1:0",
		}
		uc.LlmParams.ModelParams = map[string]any{"max_tokens": float64(512)}

		client := NewBedrockChatClient(newTestDeps(t, uc, titanModelInfo()))
		ev := &core.RequestEvent{Question: "hello", ConversationID: "conv-1"}
		model, err := client.GetModel(context.Background(), ev, "user-1")
		require.NoError(t, err)

		bedrockModel := model.(*llm.BedrockLLM)
		assert.Equal(t, 512, bedrockModel.ModelParams().ToMap(true)["max_tokens"])
	})

	t.Run("unrecognized model parameter fails the build", func(t *testing.T) {
		uc := titanConfig()
		uc.LlmParams.ModelParams = map[string]any{"top_p": 0.9}

		client := NewBedrockChatClient(newTestDeps(t, uc, titanModelInfo()))
		ev := &core.RequestEvent{Question: "hello", ConversationID: "conv-1"}
		_, err := client.GetModel(context.Background(), ev, "user-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "top_p")
	})

	t.Run("question is normalized and bounded by the recorded limit", func(t *testing.T) {
		rec := titanModelInfo()
		rec.MaxChatMessageSize = 12
		client := NewBedrockChatClient(newTestDeps(t, titanConfig(), rec))

		ev := &core.RequestEvent{Question: "hi\x00 " + strings.Repeat("x", 100), ConversationID: "conv-1"}
		_, err := client.GetModel(context.Background(), ev, "user-1")
		require.NoError(t, err)
		assert.NotContains(t, ev.Question, "\x00")
		assert.LessOrEqual(t, len(ev.Question), 12)
	})

	t.Run("missing question is rejected", func(t *testing.T) {
		client := NewBedrockChatClient(newTestDeps(t, titanConfig(), titanModelInfo()))
		_, err := client.GetModel(context.Background(), &core.RequestEvent{}, "user-1")
		require.Error(t, err)
	})

	t.Run("conversation id is generated when absent", func(t *testing.T) {
		client := NewBedrockChatClient(newTestDeps(t, titanConfig(), titanModelInfo()))
		ev := &core.RequestEvent{Question: "hello"}
		_, err := client.GetModel(context.Background(), ev, "user-1")
		require.NoError(t, err)
		assert.NotEmpty(t, ev.ConversationID)
	})
}

func TestCheckEnv(t *testing.T) {
	t.Run("missing deployment settings are all reported", func(t *testing.T) {
		deps := newTestDeps(t, titanConfig(), titanModelInfo())
		deps.Cfg = config.NewFromViper(config.NewEmptyViper())
		client := NewBedrockChatClient(deps)

		err := client.CheckEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "usecase.config_param")
		assert.Contains(t, err.Error(), "tables.model_info")
		assert.Contains(t, err.Error(), "tables.conversation")
	})
}

func TestNew(t *testing.T) {
	deps := newTestDeps(t, titanConfig(), titanModelInfo())

	t.Run("known providers resolve", func(t *testing.T) {
		for _, provider := range []core.LLMProvider{
			core.ProviderBedrock, core.ProviderAnthropic, core.ProviderHuggingFace, core.ProviderSageMaker,
		} {
			client, err := New(provider, deps)
			require.NoError(t, err)
			assert.NotNil(t, client)
		}
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		_, err := New(core.LLMProvider("Gemini"), deps)
		require.Error(t, err)
	})
}
