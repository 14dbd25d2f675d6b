package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client the history store uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

const (
	roleHuman = "human"
	roleAI    = "ai"
)

// DynamoDBHistoryStore persists conversation history in a DynamoDB table
// keyed by (UserId, ConversationId). A (human, AI) exchange is appended in
// a single update so the pair is never split; expiry uses a TTL attribute.
type DynamoDBHistoryStore struct {
	client DynamoDBAPI
	table  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewDynamoDBHistoryStore creates a DynamoDB-backed conversation store
func NewDynamoDBHistoryStore(client DynamoDBAPI, table string, ttl time.Duration, logger *zap.Logger) *DynamoDBHistoryStore {
	return &DynamoDBHistoryStore{
		client: client,
		table:  table,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *DynamoDBHistoryStore) key(userID, conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"UserId":         &types.AttributeValueMemberS{Value: userID},
		"ConversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

// Get returns up to limit exchanges (2*limit messages), most recent last.
// limit <= 0 returns the full stored history
func (s *DynamoDBHistoryStore) Get(ctx context.Context, userID, conversationID string, limit int) ([]core.Message, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(userID, conversationID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation history: %w", err)
	}
	if out.Item == nil {
		return []core.Message{}, nil
	}

	var item struct {
		History []core.Message `dynamodbav:"History"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}

	messages := item.History
	if limit > 0 && len(messages) > 2*limit {
		messages = messages[len(messages)-2*limit:]
	}
	return messages, nil
}

// AppendExchange appends the (human, AI) message pair and refreshes the TTL
// in one write
func (s *DynamoDBHistoryStore) AppendExchange(ctx context.Context, userID, conversationID, humanMsg, aiMsg string) error {
	exchange, err := attributevalue.MarshalList([]core.Message{
		{Role: roleHuman, Content: humanMsg},
		{Role: roleAI, Content: aiMsg},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal conversation exchange: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl).Unix()
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(userID, conversationID),
		UpdateExpression: aws.String("SET #hist = list_append(if_not_exists(#hist, :empty), :exchange), ExpiresAt = :ttl"),
		ExpressionAttributeNames: map[string]string{
			"#hist": "History",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":exchange": &types.AttributeValueMemberL{Value: exchange},
			":empty":    &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":ttl":      &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to append conversation exchange: %w", err)
	}
	return nil
}

// Clear removes the conversation's stored history
func (s *DynamoDBHistoryStore) Clear(ctx context.Context, userID, conversationID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(userID, conversationID),
	})
	if err != nil {
		return fmt.Errorf("failed to clear conversation history: %w", err)
	}
	s.logger.Info("Conversation history cleared",
		zap.String("conversation_id", conversationID))
	return nil
}
