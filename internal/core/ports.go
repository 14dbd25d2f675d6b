package core

import (
	"context"
)

// ChatModel is a fully constructed chat model ready to answer questions.
type ChatModel interface {
	// Generate answers a single question, reading and updating conversation
	// history as a side effect.
	Generate(ctx context.Context, question string) (*ChatResult, error)
}

// ConfigSource loads the stored use-case configuration.
type ConfigSource interface {
	// GetConfig returns the configuration stored under key. A missing key is
	// an error.
	GetConfig(ctx context.Context, key string) (*UseCaseConfig, error)
}

// ConversationStore persists conversation history keyed by user and
// conversation id. Exchanges are appended as (human, AI) pairs, never
// individually.
type ConversationStore interface {
	Get(ctx context.Context, userID, conversationID string, limit int) ([]Message, error)
	AppendExchange(ctx context.Context, userID, conversationID, humanMsg, aiMsg string) error
	Clear(ctx context.Context, userID, conversationID string) error
}

// Retriever queries an external document index.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]SourceDocument, error)
}

// SecretSource resolves provider API credentials.
type SecretSource interface {
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// DeliveryChannel pushes a response payload to a connected client.
type DeliveryChannel interface {
	Post(ctx context.Context, connectionID string, payload []byte) error
}
