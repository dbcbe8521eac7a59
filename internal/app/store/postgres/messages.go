package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/pkg/errs"
)

// Messages implements conversation.Backend.
type Messages struct {
	pool *pgxpool.Pool
}

// NewMessages returns a messaging backend over pool.
func NewMessages(pool *pgxpool.Pool) *Messages {
	return &Messages{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetch(ctx context.Context, q querier, tradeID string) ([]conversation.Message, error) {
	rows, err := q.Query(ctx, `
		SELECT id, trade_id, sender, body, sent_at
		FROM messages
		WHERE trade_id = $1
		ORDER BY seq`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (conversation.Message, error) {
		var m conversation.Message
		err := row.Scan(&m.ID, &m.TradeID, &m.Sender, &m.Body, &m.SentAt)
		m.SentAt = m.SentAt.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	if msgs == nil {
		msgs = []conversation.Message{}
	}
	return msgs, nil
}

// FetchConversation implements conversation.Backend.
func (s *Messages) FetchConversation(ctx context.Context, tradeID string) ([]conversation.Message, error) {
	return fetch(ctx, s.pool, tradeID)
}

// AppendMessage implements conversation.Backend.
func (s *Messages) AppendMessage(ctx context.Context, msg conversation.Message) (conversation.Message, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, trade_id, sender, body, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.TradeID, msg.Sender, msg.Body, msg.SentAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return conversation.Message{}, errs.NewError(errs.ErrTradeNotFound)
		}
		return conversation.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// SeedConversation implements conversation.Backend. A transaction-scoped
// advisory lock on the trade id serializes concurrent seeders.
func (s *Messages) SeedConversation(ctx context.Context, tradeID string, msgs []conversation.Message) ([]conversation.Message, error) {
	var out []conversation.Message

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tradeID); err != nil {
			return fmt.Errorf("lock conversation: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE trade_id = $1)`, tradeID).Scan(&exists); err != nil {
			return fmt.Errorf("check conversation: %w", err)
		}

		if !exists {
			for _, m := range msgs {
				if _, err := tx.Exec(ctx, `
					INSERT INTO messages (id, trade_id, sender, body, sent_at)
					VALUES ($1, $2, $3, $4, $5)`,
					m.ID, tradeID, m.Sender, m.Body, m.SentAt); err != nil {
					return fmt.Errorf("insert seed message: %w", err)
				}
			}
		}

		var err error
		out, err = fetch(ctx, tx, tradeID)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, errs.NewError(errs.ErrTradeNotFound)
		}
		return nil, err
	}

	return out, nil
}
