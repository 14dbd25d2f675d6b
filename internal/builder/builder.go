// Package builder assembles chat models from use-case configuration. The
// steps run in a fixed order: knowledge base, memory constants, conversation
// memory, model defaults, and finally the model itself. Recoverable
// configuration problems accumulate along the way and are reported together
// before model construction.
package builder

import (
	"context"
	"strings"

	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
	"github.com/mikey/llm-chat-backend/internal/knowledgebase"
	"github.com/mikey/llm-chat-backend/internal/memory"
	"github.com/mikey/llm-chat-backend/internal/utils"
	"go.uber.org/zap"
)

// Deps bundles the collaborators every provider builder needs.
type Deps struct {
	Cfg            *config.Config
	Logger         *zap.Logger
	KBFactory      *knowledgebase.Factory
	MemoryFactory  *memory.Factory
	DefaultsSource defaults.Source
	SecretSource   core.SecretSource
	TextProcessor  *utils.TextProcessor
}

// Builder carries the shared state threaded through the build steps.
// Provider-specific builders embed it and add the terminal SetLLMModel.
type Builder struct {
	Deps

	UseCaseConfig    *core.UseCaseConfig
	UserContextToken string
	RAGEnabled       bool

	KnowledgeBase      knowledgebase.KnowledgeBase
	MemoryKeys         memory.Keys
	ConversationMemory *memory.ConversationMemory
	ModelDefaults      *defaults.ModelDefaults
	LLMModel           core.ChatModel

	errors         []string
	memoryKeysSet  bool
	memoryResolved bool
}

// New creates a builder for one use-case configuration.
func New(deps Deps, ucConfig *core.UseCaseConfig, userContextToken string) *Builder {
	return &Builder{
		Deps:             deps,
		UseCaseConfig:    ucConfig,
		UserContextToken: userContextToken,
		RAGEnabled:       ucConfig.LlmParams.RAGEnabled,
	}
}

// UseCase reports which defaults record variant applies.
func (b *Builder) UseCase() core.UseCase {
	if b.RAGEnabled {
		return core.UseCaseRAGChat
	}
	return core.UseCaseChat
}

// SetKnowledgeBase attaches the knowledge base when RAG is enabled. Factory
// failures land in the accumulated error list; whether that is fatal is
// decided when the model is constructed.
func (b *Builder) SetKnowledgeBase(ctx context.Context) error {
	if !b.RAGEnabled {
		return nil
	}
	kb, err := b.KBFactory.GetKnowledgeBase(b.UseCaseConfig.KnowledgeBaseParams, b.UserContextToken, &b.errors)
	if err != nil {
		return err
	}
	b.KnowledgeBase = kb
	return nil
}

// memoryKeyTable holds the per-provider prompt-slot names and prefixes used
// to bridge configuration and memory.
var memoryKeyTable = map[core.LLMProvider]memory.Keys{
	core.ProviderBedrock:     {History: "history", Input: "input", Context: "context", Output: "answer", HumanPrefix: "Human", AiPrefix: "AI"},
	core.ProviderAnthropic:   {History: "history", Input: "input", Context: "context", Output: "answer", HumanPrefix: "Human", AiPrefix: "Assistant"},
	core.ProviderHuggingFace: {History: "history", Input: "input", Context: "context", Output: "answer", HumanPrefix: "Human", AiPrefix: "AI"},
	core.ProviderSageMaker:   {History: "history", Input: "input", Context: "context", Output: "answer", HumanPrefix: "Human", AiPrefix: "AI"},
}

// SetMemoryConstants resolves the memory key names for a provider.
func (b *Builder) SetMemoryConstants(provider core.LLMProvider) {
	keys, ok := memoryKeyTable[provider]
	if !ok {
		keys = memoryKeyTable[core.ProviderBedrock]
	}
	b.MemoryKeys = keys
	b.memoryKeysSet = true
}

// SetConversationMemory attaches the conversation memory. Must run after
// SetMemoryConstants.
func (b *Builder) SetConversationMemory(ctx context.Context, userID, conversationID string) error {
	if !b.memoryKeysSet {
		return core.NewConfigurationError("memory constants must be resolved before conversation memory")
	}
	if userID == "" {
		b.errors = append(b.errors, "Missing user id for conversation memory")
		b.memoryResolved = true
		return nil
	}
	if conversationID == "" {
		b.errors = append(b.errors, "Missing conversation id for conversation memory")
		b.memoryResolved = true
		return nil
	}
	b.ConversationMemory = b.MemoryFactory.GetConversationMemory(
		b.UseCaseConfig, b.MemoryKeys, userID, conversationID, &b.errors)
	b.memoryResolved = true
	return nil
}

// SetModelDefaults fetches and validates the model-defaults record for the
// provider and model. Conversation memory is resolved before the defaults,
// so the recorded memory configuration is applied to it here.
func (b *Builder) SetModelDefaults(ctx context.Context, provider core.LLMProvider, modelID string) error {
	md, err := defaults.Fetch(ctx, b.DefaultsSource, b.UseCase(), string(provider), modelID)
	if err != nil {
		return err
	}
	b.ModelDefaults = md
	b.applyMemoryDefaults()
	return nil
}

// applyMemoryDefaults backfills the conversation-memory prefixes from the
// model defaults' memory configuration when the use case did not set them.
func (b *Builder) applyMemoryDefaults() {
	if b.ConversationMemory == nil {
		return
	}
	mp := b.UseCaseConfig.ConversationMemoryParams
	if (mp == nil || mp.HumanPrefix == "") && b.ModelDefaults.MemoryConfig["human_prefix"] != "" {
		b.ConversationMemory.Keys.HumanPrefix = b.ModelDefaults.MemoryConfig["human_prefix"]
	}
	if (mp == nil || mp.AiPrefix == "") && b.ModelDefaults.MemoryConfig["ai_prefix"] != "" {
		b.ConversationMemory.Keys.AiPrefix = b.ModelDefaults.MemoryConfig["ai_prefix"]
	}
}

// CheckBuildErrors enforces the cross-step invariants before model
// construction: RAG requires an attached knowledge base, and every
// accumulated problem is fatal at this point.
func (b *Builder) CheckBuildErrors() error {
	if b.RAGEnabled && b.KnowledgeBase == nil {
		b.errors = append(b.errors,
			"KnowledgeBase is required for a RAG-enabled use case, but its construction failed")
	}
	if len(b.errors) > 0 {
		return core.NewValidationError("%s", strings.Join(b.errors, "\n"))
	}
	if !b.memoryResolved {
		return core.NewConfigurationError("conversation memory must be resolved before the model is constructed")
	}
	return nil
}

// ProcessQuestion normalizes the user question and bounds it to the
// recorded chat-message size limit. Must run after model defaults are
// resolved.
func (b *Builder) ProcessQuestion(question string) string {
	return b.TextProcessor.ProcessText(question, b.ModelDefaults.MaxChatMessageSize)
}

// PromptTemplate picks the per-request prompt override when one was
// supplied and fits the recorded size limit, else the stored default.
func (b *Builder) PromptTemplate(override string) string {
	if override == "" {
		return b.ModelDefaults.Prompt
	}
	if b.ModelDefaults.MaxPromptSize > 0 && len(override) > b.ModelDefaults.MaxPromptSize {
		b.Logger.Warn("Prompt template override exceeds the recorded size limit, using the stored default",
			zap.Int("size", len(override)),
			zap.Int("max_size", b.ModelDefaults.MaxPromptSize))
		return b.ModelDefaults.Prompt
	}
	return b.TextProcessor.Normalize(override)
}
