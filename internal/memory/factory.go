package memory

import (
	"fmt"

	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

const defaultHistoryLength = 10

// Factory resolves conversation memory from use-case configuration. Only
// the DynamoDB memory type is supported; the store itself is injected so
// the factory stays free of client construction.
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
	store  core.ConversationStore
}

// NewFactory creates a new conversation-memory factory.
func NewFactory(cfg *config.Config, logger *zap.Logger, store core.ConversationStore) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// GetConversationMemory resolves the memory for one conversation. Problems
// are appended to errs and yield nil; the caller decides whether that is
// fatal. Prefixes come from the use-case configuration first, then the
// provider-level keys; the builder backfills the model defaults' memory
// configuration once the defaults record is resolved.
func (f *Factory) GetConversationMemory(
	ucConfig *core.UseCaseConfig,
	keys Keys,
	userID, conversationID string,
	errs *[]string,
) *ConversationMemory {
	memParams := ucConfig.ConversationMemoryParams
	if memParams == nil || memParams.ConversationMemoryType == "" {
		*errs = append(*errs, "Missing required field ConversationMemoryType in the use case configuration")
		return nil
	}
	if memParams.ConversationMemoryType != core.MemoryDynamoDB {
		*errs = append(*errs, fmt.Sprintf(
			"Unsupported Memory base type: %s. Supported types: %v",
			memParams.ConversationMemoryType, core.SupportedMemoryTypes))
		return nil
	}
	if f.cfg.GetString("tables.conversation") == "" {
		// deployment problem, not a user error; still collected so the
		// builder reports everything at once
		*errs = append(*errs, "Conversation table name is not configured for this deployment")
		return nil
	}

	if memParams.HumanPrefix != "" {
		keys.HumanPrefix = memParams.HumanPrefix
	}
	if memParams.AiPrefix != "" {
		keys.AiPrefix = memParams.AiPrefix
	}

	historyLength := memParams.ChatHistoryLength
	if historyLength <= 0 {
		historyLength = defaultHistoryLength
	}

	return &ConversationMemory{
		Store:          f.store,
		UserID:         userID,
		ConversationID: conversationID,
		Keys:           keys,
		HistoryLength:  historyLength,
	}
}
