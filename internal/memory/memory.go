package memory

import (
	"context"
	"strings"

	"github.com/mikey/llm-chat-backend/internal/core"
)

// Keys names the prompt-template slots and message prefixes used to bridge
// stored history into a prompt.
type Keys struct {
	History     string
	Input       string
	Context     string
	Output      string
	HumanPrefix string
	AiPrefix    string
}

// ConversationMemory binds a conversation store to one (user, conversation)
// pair with resolved prefixes and history length.
type ConversationMemory struct {
	Store          core.ConversationStore
	UserID         string
	ConversationID string
	Keys           Keys
	HistoryLength  int
}

// LoadHistory formats the stored conversation as prefixed turns, oldest
// first, ready for prompt substitution.
func (m *ConversationMemory) LoadHistory(ctx context.Context) (string, error) {
	messages, err := m.Store.Get(ctx, m.UserID, m.ConversationID, m.HistoryLength)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		prefix := m.Keys.HumanPrefix
		if msg.Role == roleAI {
			prefix = m.Keys.AiPrefix
		}
		b.WriteString(prefix)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String(), nil
}

// SaveExchange appends one (question, answer) pair to the store.
func (m *ConversationMemory) SaveExchange(ctx context.Context, question, answer string) error {
	return m.Store.AppendExchange(ctx, m.UserID, m.ConversationID, question, answer)
}
