package llm

import (
	"context"
	"strings"

	"github.com/mikey/llm-chat-backend/internal/memory"
	"go.uber.org/zap"
)

// RenderPrompt substitutes {placeholder} slots in a prompt template.
// Unreferenced values are ignored; unknown placeholders are left intact.
func RenderPrompt(template string, values map[string]string) string {
	out := template
	for k, v := range values {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// assemblePrompt renders the template with the conversation history, the
// retrieved context and the question. History is loaded best-effort: a read
// failure produces an ungrounded prompt rather than a failed request.
func assemblePrompt(ctx context.Context, template string, mem *memory.ConversationMemory, docContext, question string, logger *zap.Logger) string {
	values := map[string]string{
		"input":   question,
		"context": docContext,
	}
	historyKey := "history"
	if mem != nil {
		if mem.Keys.History != "" {
			historyKey = mem.Keys.History
		}
		if mem.Keys.Input != "" {
			values[mem.Keys.Input] = question
		}
		if mem.Keys.Context != "" {
			values[mem.Keys.Context] = docContext
		}
		history, err := mem.LoadHistory(ctx)
		if err != nil {
			logger.Warn("Failed to load conversation history, prompting without it", zap.Error(err))
			history = ""
		}
		values[historyKey] = history
	} else {
		values[historyKey] = ""
	}
	return RenderPrompt(template, values)
}
