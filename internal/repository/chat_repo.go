package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/pkg/db"
)

// HistoryLimit caps how many earlier messages are replayed to the model.
const HistoryLimit = 50

// ChatMessage is one logged line of a conversation.
type ChatMessage struct {
	Message     string
	MessageType string
}

// ChatRepository appends to and reads the nurse and coordinator chat logs.
type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func (r *ChatRepository) AppendNurse(ctx context.Context, mobile, message, messageType string) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO nurse_chat_data (mobile_number, message, message_type) VALUES ($1, $2, $3)
	`, mobile, message, messageType); err != nil {
		return fmt.Errorf("failed to log nurse message: %w", err)
	}
	return nil
}

func (r *ChatRepository) AppendCoordinator(ctx context.Context, sender, message, messageType string) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO coordinator_chat_data (sender, message, message_type) VALUES ($1, $2, $3)
	`, sender, message, messageType); err != nil {
		return fmt.Errorf("failed to log coordinator message: %w", err)
	}
	return nil
}

// NurseHistory returns the latest HistoryLimit messages of mobile, oldest first.
func (r *ChatRepository) NurseHistory(ctx context.Context, mobile string) ([]ChatMessage, error) {
	return r.history(ctx, `
		SELECT COALESCE(message, ''), message_type FROM (
			SELECT id, message, message_type FROM nurse_chat_data
			WHERE mobile_number = $1 ORDER BY id DESC LIMIT $2
		) h ORDER BY id ASC
	`, mobile)
}

// CoordinatorHistory returns the latest HistoryLimit messages of sender, oldest first.
func (r *ChatRepository) CoordinatorHistory(ctx context.Context, sender string) ([]ChatMessage, error) {
	return r.history(ctx, `
		SELECT COALESCE(message, ''), message_type FROM (
			SELECT id, message, message_type FROM coordinator_chat_data
			WHERE sender = $1 ORDER BY id DESC LIMIT $2
		) h ORDER BY id ASC
	`, sender)
}

func (r *ChatRepository) history(ctx context.Context, query, key string) ([]ChatMessage, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, key, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.Message, &m.MessageType); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
