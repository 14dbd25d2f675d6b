// Package ws delivers chat responses back to websocket clients through the
// API Gateway management API.
package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// ManagementAPI is the subset of the API Gateway management client the
// delivery channel uses
type ManagementAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// DeliveryChannel posts payloads to a websocket connection
type DeliveryChannel struct {
	client ManagementAPI
	logger *zap.Logger
}

// NewDeliveryChannel creates a websocket delivery channel
func NewDeliveryChannel(client ManagementAPI, logger *zap.Logger) *DeliveryChannel {
	return &DeliveryChannel{
		client: client,
		logger: logger,
	}
}

// Post implements core.DeliveryChannel. A GoneException means the client
// disconnected while we were generating, which is not worth failing the
// record over.
func (d *DeliveryChannel) Post(ctx context.Context, connectionID string, payload []byte) error {
	if connectionID == "" {
		return fmt.Errorf("connection id is empty")
	}

	_, err := d.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "GoneException" {
			d.logger.Warn("Websocket connection is gone, dropping response",
				zap.String("connection_id", connectionID))
			return nil
		}
		return fmt.Errorf("failed to post to connection %s: %w", connectionID, err)
	}
	return nil
}
