package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "shiftdesk/contracts/mq"
	"shiftdesk/pkg/outbox"
	"shiftdesk/pkg/trace"
)

// Notifier queues a text for a nurse or coordinator.
type Notifier interface {
	Notify(ctx context.Context, recipient, text string) error
}

// OutboxNotifier records each message in the outbox. When ctx carries a
// transaction the message commits or rolls back with it.
type OutboxNotifier struct {
	events outbox.EventWriter
	now    func() time.Time
	logger *zap.Logger
}

func NewOutboxNotifier(events outbox.EventWriter, logger *zap.Logger) *OutboxNotifier {
	return &OutboxNotifier{events: events, now: time.Now, logger: logger}
}

func (n *OutboxNotifier) Notify(ctx context.Context, recipient, text string) error {
	payload := mqcontracts.MessageSendPayload{
		MessageID: uuid.NewString(),
		Recipient: recipient,
		Message:   text,
		TraceID:   trace.FromContext(ctx),
		CreatedAt: n.now().UTC(),
	}

	if err := outbox.Enqueue(ctx, n.events, "message", nil, mqcontracts.RoutingKeyMessageSend, payload); err != nil {
		n.logger.Error("Failed to queue message",
			zap.String("recipient", recipient),
			zap.Error(err),
		)
		return err
	}

	n.logger.Debug("Message queued",
		zap.String("message_id", payload.MessageID),
		zap.String("recipient", recipient),
	)
	return nil
}
