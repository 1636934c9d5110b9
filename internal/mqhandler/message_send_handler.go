package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	mqcontracts "shiftdesk/contracts/mq"
	"shiftdesk/internal/messaging"
	"shiftdesk/pkg/metrics"
	"shiftdesk/pkg/trace"
	"shiftdesk/pkg/util"
)

type onceGuard interface {
	AcquireOnce(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

type retryTracker interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type deadLetterer interface {
	PublishToDLQ(ctx context.Context, routingKey string, payload []byte, originalError string) error
}

// MessageSendHandler delivers queued texts through the relay.
type MessageSendHandler struct {
	sender     messaging.Sender
	guard      onceGuard
	retries    retryTracker
	dlq        deadLetterer
	delay      time.Duration
	maxRetries int64
	logger     *zap.Logger
}

func NewMessageSendHandler(
	sender messaging.Sender,
	guard onceGuard,
	retries retryTracker,
	dlq deadLetterer,
	delay time.Duration,
	maxRetries int64,
	logger *zap.Logger,
) *MessageSendHandler {
	return &MessageSendHandler{
		sender:     sender,
		guard:      guard,
		retries:    retries,
		dlq:        dlq,
		delay:      delay,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Handle returns an error only when the message should be requeued.
func (h *MessageSendHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.MessageSendPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal message payload (non-retryable, sending to DLQ)",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		h.deadLetter(ctx, raw, err)
		return nil
	}

	if p.TraceID != "" && trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	log := h.logger.With(
		zap.String("message_id", p.MessageID),
		zap.String("recipient", p.Recipient),
		zap.String("trace_id", p.TraceID),
	)

	if p.MessageID != "" && !h.guard.AcquireOnce(ctx, p.MessageID) {
		metrics.IncrementMessageSent("duplicate")
		return nil
	}

	if err := h.wait(ctx); err != nil {
		h.guard.Release(context.WithoutCancel(ctx), p.MessageID)
		return err
	}

	err := h.sender.Send(ctx, p.Recipient, p.Message)
	retryKey := util.FormatRetryKey("message_send", p.MessageID)
	if err == nil {
		_ = h.retries.Reset(ctx, retryKey)
		metrics.IncrementMessageSent("sent")
		log.Info("Message delivered")
		return nil
	}

	// Shutting down mid-send: hand the message back untouched.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		log.Warn("Delivery interrupted, requeueing", zap.Error(err))
		h.guard.Release(context.WithoutCancel(ctx), p.MessageID)
		return err
	}

	retryable, errType := util.IsRetryableError(err)
	log = log.With(zap.String("error_type", errType), zap.Bool("retryable", retryable), zap.Error(err))

	if !retryable {
		log.Error("Message rejected by relay, sending to DLQ")
		h.deadLetter(ctx, raw, err)
		_ = h.retries.Reset(ctx, retryKey)
		return nil
	}

	count, cerr := h.retries.IncrementAndGet(ctx, retryKey)
	if cerr != nil {
		log.Warn("Failed to get retry count, continuing anyway", zap.NamedError("counter_error", cerr))
		count = 1
	}

	if count > h.maxRetries {
		log.Warn("Max retries exceeded, sending to DLQ", zap.Int64("retry_count", count))
		h.deadLetter(ctx, raw, err)
		_ = h.retries.Reset(ctx, retryKey)
		return nil
	}

	log.Warn("Message delivery failed, will retry", zap.Int64("retry_count", count))
	metrics.IncrementMessageSent("retry")
	h.guard.Release(ctx, p.MessageID)
	return err
}

func (h *MessageSendHandler) wait(ctx context.Context) error {
	if h.delay <= 0 {
		return nil
	}
	t := time.NewTimer(h.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *MessageSendHandler) deadLetter(ctx context.Context, raw []byte, cause error) {
	metrics.IncrementMessageSent("dead_lettered")
	if err := h.dlq.PublishToDLQ(ctx, mqcontracts.RoutingKeyMessageSend, raw, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ", zap.Error(err))
	}
}
