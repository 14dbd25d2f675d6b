package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
)

type scriptedModel struct {
	answer string
	err    error
}

func (m *scriptedModel) Generate(ctx context.Context, question string) (*core.ChatResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &core.ChatResult{Answer: m.answer}, nil
}

// scriptedClient answers per question: questions prefixed "fail" error out.
type scriptedClient struct{}

func (scriptedClient) CheckEnv() error                        { return nil }
func (scriptedClient) CheckEvent(ev *core.RequestEvent) error { return nil }

func (scriptedClient) GetModel(ctx context.Context, ev *core.RequestEvent, userID string) (core.ChatModel, error) {
	if strings.HasPrefix(ev.Question, "fail") {
		return nil, errors.New("scripted failure")
	}
	return &scriptedModel{answer: "answer to " + ev.Question}, nil
}

type clearingStore struct {
	cleared []string
	err     error
}

func (s *clearingStore) Get(ctx context.Context, userID, conversationID string, limit int) ([]core.Message, error) {
	return nil, nil
}
func (s *clearingStore) AppendExchange(ctx context.Context, userID, conversationID, humanMsg, aiMsg string) error {
	return nil
}
func (s *clearingStore) Clear(ctx context.Context, userID, conversationID string) error {
	s.cleared = append(s.cleared, userID+"/"+conversationID)
	return s.err
}

type capturingDelivery struct {
	posts map[string][]string
}

func (d *capturingDelivery) Post(ctx context.Context, connectionID string, payload []byte) error {
	if d.posts == nil {
		d.posts = map[string][]string{}
	}
	d.posts[connectionID] = append(d.posts[connectionID], string(payload))
	return nil
}

func newTestHandler(t *testing.T, store core.ConversationStore, delivery core.DeliveryChannel) *Handler {
	t.Helper()
	v := config.NewEmptyViper()
	v.Set("trace.id", "trace-1")
	h, err := New(config.NewFromViper(v), zap.NewNop(), scriptedClient{}, store, delivery)
	require.NoError(t, err)
	return h
}

func record(messageID, connectionID, question, conversationID string) events.SQSMessage {
	body, _ := json.Marshal(map[string]any{
		"requestContext": map[string]any{
			"authorizer": map[string]any{"UserId": "user-1"},
		},
		"message": map[string]any{
			"question":       question,
			"conversationId": conversationID,
		},
	})
	msg := events.SQSMessage{
		MessageId:         messageID,
		Body:              string(body),
		MessageAttributes: map[string]events.SQSMessageAttribute{},
	}
	if connectionID != "" {
		msg.MessageAttributes["connectionId"] = events.SQSMessageAttribute{
			DataType:    "String",
			StringValue: aws.String(connectionID),
		}
	}
	msg.MessageAttributes["requestId"] = events.SQSMessageAttribute{
		DataType:    "String",
		StringValue: aws.String("req-" + messageID),
	}
	return msg
}

func failureIDs(resp events.SQSEventResponse) []string {
	ids := make([]string, 0, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		ids = append(ids, f.ItemIdentifier)
	}
	return ids
}

func TestHandleBatch(t *testing.T) {
	t.Run("independent records are isolated from a failure", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "conn-a", "fail please", "c1"),
			record("m2", "conn-b", "hello", "c2"),
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"m1"}, failureIDs(resp))
		require.Len(t, delivery.posts["conn-b"], 1)
		assert.Contains(t, delivery.posts["conn-b"][0], "answer to hello")
	})

	t.Run("later records on a failed connection are deferred", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "conn-a", "fail please", "c1"),
			record("m2", "conn-a", "hello", "c1"),
			record("m3", "conn-b", "hello", "c2"),
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"m1", "m2"}, failureIDs(resp))
		// the deferred record must not have been processed at all
		for _, post := range delivery.posts["conn-a"] {
			assert.NotContains(t, post, "answer to")
		}
		assert.Len(t, delivery.posts["conn-b"], 1)
	})

	t.Run("failure posts the user facing message with the trace id", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)

		_, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "conn-a", "fail please", "c1"),
		}})
		require.NoError(t, err)

		require.Len(t, delivery.posts["conn-a"], 1)
		assert.Contains(t, delivery.posts["conn-a"][0], core.UserFacingMessage("trace-1"))
		assert.NotContains(t, delivery.posts["conn-a"][0], "scripted failure")
	})

	t.Run("missing connection id fails the record alone", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "", "hello", "c1"),
			record("m2", "conn-a", "hello", "c2"),
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"m1"}, failureIDs(resp))
		assert.Len(t, delivery.posts["conn-a"], 1)
	})

	t.Run("exhausted time budget defers the rest of the batch", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)
		h.timeBuffer = time.Minute

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(time.Second))
		defer cancel()

		resp, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "conn-a", "hello", "c1"),
			record("m2", "conn-b", "hello", "c2"),
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"m1", "m2"}, failureIDs(resp))
		assert.Empty(t, delivery.posts)
	})

	t.Run("no deadline means no cutoff", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)
		h.timeBuffer = time.Minute

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			record("m1", "conn-a", "hello", "c1"),
		}})
		require.NoError(t, err)
		assert.Empty(t, failureIDs(resp))
	})

	t.Run("malformed body fails the record", func(t *testing.T) {
		delivery := &capturingDelivery{}
		h := newTestHandler(t, &clearingStore{}, delivery)

		msg := record("m1", "conn-a", "hello", "c1")
		msg.Body = "{not json"
		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{msg}})
		require.NoError(t, err)
		assert.Equal(t, []string{"m1"}, failureIDs(resp))
	})
}

func TestClearConversation(t *testing.T) {
	clearRecord := func(messageID, conversationID string) events.SQSMessage {
		body, _ := json.Marshal(map[string]any{
			"requestContext": map[string]any{
				"authorizer": map[string]any{"UserId": "user-1"},
			},
			"message": map[string]any{
				"action":         actionClearConversation,
				"conversationId": conversationID,
			},
		})
		msg := record(messageID, "conn-a", "", conversationID)
		msg.Body = string(body)
		return msg
	}

	t.Run("clears the stored history", func(t *testing.T) {
		store := &clearingStore{}
		delivery := &capturingDelivery{}
		h := newTestHandler(t, store, delivery)

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			clearRecord("m1", "c1"),
		}})
		require.NoError(t, err)

		assert.Empty(t, failureIDs(resp))
		assert.Equal(t, []string{"user-1/c1"}, store.cleared)
		require.Len(t, delivery.posts["conn-a"], 1)
	})

	t.Run("store failure fails the record", func(t *testing.T) {
		store := &clearingStore{err: fmt.Errorf("conditional check failed")}
		h := newTestHandler(t, store, &capturingDelivery{})

		resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
			clearRecord("m1", "c1"),
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{"m1"}, failureIDs(resp))
	})
}
