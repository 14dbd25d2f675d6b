package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeManagementAPI struct {
	err error
	in  *apigatewaymanagementapi.PostToConnectionInput
}

func (c *fakeManagementAPI) PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	c.in = params
	if c.err != nil {
		return nil, c.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestDeliveryChannelPost(t *testing.T) {
	t.Run("posts the payload to the connection", func(t *testing.T) {
		client := &fakeManagementAPI{}
		d := NewDeliveryChannel(client, zap.NewNop())

		require.NoError(t, d.Post(context.Background(), "conn-1", []byte(`{"data":"hi"}`)))
		assert.Equal(t, "conn-1", *client.in.ConnectionId)
		assert.Equal(t, `{"data":"hi"}`, string(client.in.Data))
	})

	t.Run("gone connection is not an error", func(t *testing.T) {
		client := &fakeManagementAPI{err: &smithy.GenericAPIError{Code: "GoneException"}}
		d := NewDeliveryChannel(client, zap.NewNop())

		assert.NoError(t, d.Post(context.Background(), "conn-1", []byte("x")))
	})

	t.Run("other api errors propagate", func(t *testing.T) {
		client := &fakeManagementAPI{err: errors.New("limit exceeded")}
		d := NewDeliveryChannel(client, zap.NewNop())

		err := d.Post(context.Background(), "conn-1", []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conn-1")
	})

	t.Run("empty connection id is rejected", func(t *testing.T) {
		d := NewDeliveryChannel(&fakeManagementAPI{}, zap.NewNop())
		require.Error(t, d.Post(context.Background(), "", []byte("x")))
	})
}
