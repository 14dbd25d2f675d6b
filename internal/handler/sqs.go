// Package handler processes SQS batches of websocket chat requests. It is
// the only layer that turns errors into user-facing payloads; everything
// below it returns plain errors.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mikey/llm-chat-backend/internal/clients"
	"github.com/mikey/llm-chat-backend/internal/config"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

const (
	connectionIDAttribute = "connectionId"
	requestIDAttribute    = "requestId"

	actionClearConversation = "clear_conversation"
)

// requestEnvelope is the websocket route payload forwarded by the gateway
// into the SQS queue. The authorizer has already verified the caller; we
// only read its identity.
type requestEnvelope struct {
	RequestContext struct {
		Authorizer struct {
			UserID string `json:"UserId"`
		} `json:"authorizer"`
	} `json:"requestContext"`
	Message core.RequestEvent `json:"message"`
}

// responsePayload is what gets posted back over the websocket.
type responsePayload struct {
	RequestID       string                `json:"requestId,omitempty"`
	ConversationID  string                `json:"conversationId"`
	Data            string                `json:"data,omitempty"`
	SourceDocuments []core.SourceDocument `json:"sourceDocuments,omitempty"`
	ErrorMessage    string                `json:"errorMessage,omitempty"`
}

// Handler drives one chat client over an SQS batch.
type Handler struct {
	client     clients.ChatClient
	store      core.ConversationStore
	delivery   core.DeliveryChannel
	logger     *zap.Logger
	timeBuffer time.Duration
	traceID    string
}

// New creates the batch handler. The chat client has already been selected
// for the deployment's provider.
func New(cfg *config.Config, logger *zap.Logger, client clients.ChatClient,
	store core.ConversationStore, delivery core.DeliveryChannel) (*Handler, error) {

	if err := client.CheckEnv(); err != nil {
		return nil, err
	}
	return &Handler{
		client:     client,
		store:      store,
		delivery:   delivery,
		logger:     logger,
		timeBuffer: cfg.GetDuration("sqs.time_buffer"),
		traceID:    cfg.GetString("trace.id"),
	}, nil
}

// Handle processes a batch. Failures are isolated per record, with two
// exceptions: once a record for a connection fails, later records for the
// same connection are deferred to preserve per-connection ordering, and
// when the invocation deadline gets within the configured buffer all
// remaining records are deferred rather than risking a hard kill
// mid-generation.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	failedConnections := make(map[string]struct{})

	for i, record := range event.Records {
		if h.outOfTime(ctx) {
			h.logger.Warn("Invocation time budget exhausted, deferring remaining records",
				zap.Int("deferred", len(event.Records)-i))
			for _, rest := range event.Records[i:] {
				resp.BatchItemFailures = append(resp.BatchItemFailures,
					events.SQSBatchItemFailure{ItemIdentifier: rest.MessageId})
			}
			break
		}

		connectionID := attributeValue(record, connectionIDAttribute)
		if connectionID == "" {
			// Without a connection id there is nothing to order against and
			// nowhere to deliver, so the record fails on its own.
			h.logger.Error("Record is missing the connectionId message attribute",
				zap.String("message_id", record.MessageId))
			resp.BatchItemFailures = append(resp.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}

		if _, failed := failedConnections[connectionID]; failed {
			h.logger.Warn("Deferring record behind an earlier failure on the same connection",
				zap.String("message_id", record.MessageId),
				zap.String("connection_id", connectionID))
			resp.BatchItemFailures = append(resp.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}

		requestID := attributeValue(record, requestIDAttribute)
		if err := h.processRecord(ctx, record, connectionID, requestID); err != nil {
			h.logger.Error("Failed to process record",
				zap.String("message_id", record.MessageId),
				zap.String("connection_id", connectionID),
				zap.Error(err))
			h.postError(ctx, connectionID, requestID)
			resp.BatchItemFailures = append(resp.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			failedConnections[connectionID] = struct{}{}
		}
	}

	return resp, nil
}

// outOfTime reports whether the remaining invocation time is inside the
// configured safety buffer.
func (h *Handler) outOfTime(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	if !ok || h.timeBuffer <= 0 {
		return false
	}
	return time.Until(deadline) < h.timeBuffer
}

func (h *Handler) processRecord(ctx context.Context, record events.SQSMessage, connectionID, requestID string) error {
	var envelope requestEnvelope
	if err := json.Unmarshal([]byte(record.Body), &envelope); err != nil {
		return fmt.Errorf("record body is not valid JSON: %w", err)
	}
	userID := envelope.RequestContext.Authorizer.UserID
	if userID == "" {
		return fmt.Errorf("record is missing the caller identity")
	}
	ev := &envelope.Message

	if ev.Action == actionClearConversation {
		return h.clearConversation(ctx, ev, userID, connectionID, requestID)
	}

	model, err := h.client.GetModel(ctx, ev, userID)
	if err != nil {
		return err
	}
	result, err := model.Generate(ctx, ev.Question)
	if err != nil {
		return err
	}

	return h.post(ctx, connectionID, responsePayload{
		RequestID:       requestID,
		ConversationID:  ev.ConversationID,
		Data:            result.Answer,
		SourceDocuments: result.SourceDocuments,
	})
}

func (h *Handler) clearConversation(ctx context.Context, ev *core.RequestEvent, userID, connectionID, requestID string) error {
	if ev.ConversationID == "" {
		return fmt.Errorf("clear_conversation requires a conversation id")
	}
	if err := h.store.Clear(ctx, userID, ev.ConversationID); err != nil {
		return fmt.Errorf("failed to clear conversation %s: %w", ev.ConversationID, err)
	}
	h.logger.Info("Cleared conversation history",
		zap.String("conversation_id", ev.ConversationID))
	return h.post(ctx, connectionID, responsePayload{
		RequestID:      requestID,
		ConversationID: ev.ConversationID,
	})
}

func (h *Handler) post(ctx context.Context, connectionID string, payload responsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode response payload: %w", err)
	}
	return h.delivery.Post(ctx, connectionID, body)
}

// postError sends the user-facing failure message. Delivery problems here
// are logged and swallowed, the record is already failing.
func (h *Handler) postError(ctx context.Context, connectionID, requestID string) {
	err := h.post(ctx, connectionID, responsePayload{
		RequestID:    requestID,
		ErrorMessage: core.UserFacingMessage(h.traceID),
	})
	if err != nil {
		h.logger.Warn("Failed to deliver error payload",
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}
}

func attributeValue(record events.SQSMessage, name string) string {
	attr, ok := record.MessageAttributes[name]
	if !ok || attr.StringValue == nil {
		return ""
	}
	return *attr.StringValue
}
