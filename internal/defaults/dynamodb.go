package defaults

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// DynamoDBAPI is the subset of the DynamoDB client the source uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBSource reads model-info records from the model-info table,
// keyed by (UseCase, "{provider}#{model}")
type DynamoDBSource struct {
	client DynamoDBAPI
	table  string
	logger *zap.Logger
}

// NewDynamoDBSource creates a model-info source backed by DynamoDB
func NewDynamoDBSource(client DynamoDBAPI, table string, logger *zap.Logger) *DynamoDBSource {
	return &DynamoDBSource{
		client: client,
		table:  table,
		logger: logger,
	}
}

// GetItem fetches one model-info record. A missing item returns (nil, nil)
func (s *DynamoDBSource) GetItem(ctx context.Context, useCase core.UseCase, sortKey string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"UseCase": &types.AttributeValueMemberS{Value: string(useCase)},
			"SortKey": &types.AttributeValueMemberS{Value: sortKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read model info item %q: %w", sortKey, err)
	}
	if out.Item == nil {
		s.logger.Warn("Model info record not found",
			zap.String("use_case", string(useCase)),
			zap.String("sort_key", sortKey))
		return nil, nil
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model info item %q: %w", sortKey, err)
	}
	return &rec, nil
}
