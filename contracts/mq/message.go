package mq

import "time"

// Routing keys and queue names.
const (
	RoutingKeyMessageSend = "message.send"
	QueueMessageSend      = "message.send.q"
)

// MessageSendPayload is one outbound text to a nurse or coordinator.
type MessageSendPayload struct {
	MessageID string    `json:"message_id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	TraceID   string    `json:"trace_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
