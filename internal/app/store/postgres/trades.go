package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

// Trades implements trade.Backend.
type Trades struct {
	pool *pgxpool.Pool
}

// NewTrades returns a trade backend over pool.
func NewTrades(pool *pgxpool.Pool) *Trades {
	return &Trades{pool: pool}
}

const tradeColumns = `t.id, t.owner, COALESCE(u.avatar_url, ''), t.title, t.description, t.offering, t.seeking, t.created_at, t.status`

func scanTrade(row pgx.Row) (trade.Trade, error) {
	var (
		t                 trade.Trade
		offering, seeking []byte
		status            string
	)

	if err := row.Scan(&t.ID, &t.Owner, &t.OwnerAvatar, &t.Title, &t.Description, &offering, &seeking, &t.CreatedAt, &status); err != nil {
		return trade.Trade{}, err
	}

	if err := json.Unmarshal(offering, &t.Offering); err != nil {
		return trade.Trade{}, fmt.Errorf("decode offering of trade %s: %w", t.ID, err)
	}
	if err := json.Unmarshal(seeking, &t.Seeking); err != nil {
		return trade.Trade{}, fmt.Errorf("decode seeking of trade %s: %w", t.ID, err)
	}

	t.Status = trade.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// FetchActiveTrades implements trade.Backend.
func (s *Trades) FetchActiveTrades(ctx context.Context) ([]trade.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades t
		LEFT JOIN users u ON lower(u.username) = lower(t.owner)
		WHERE t.status = 'active'
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query active trades: %w", err)
	}
	defer rows.Close()

	var out []trade.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

// GetTrade implements trade.Backend.
func (s *Trades) GetTrade(ctx context.Context, id string) (trade.Trade, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tradeColumns+`
		FROM trades t
		LEFT JOIN users u ON lower(u.username) = lower(t.owner)
		WHERE t.id = $1`, id)

	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return trade.Trade{}, errs.NewError(errs.ErrTradeNotFound)
	}
	if err != nil {
		return trade.Trade{}, fmt.Errorf("get trade %s: %w", id, err)
	}
	return t, nil
}

// PostTrade implements trade.Backend.
func (s *Trades) PostTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	offering, err := json.Marshal(t.Offering)
	if err != nil {
		return trade.Trade{}, err
	}
	seeking, err := json.Marshal(t.Seeking)
	if err != nil {
		return trade.Trade{}, err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO trades (id, owner, title, description, offering, seeking, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Owner, t.Title, t.Description, offering, seeking, t.CreatedAt, string(t.Status))
	if err != nil {
		return trade.Trade{}, fmt.Errorf("insert trade: %w", err)
	}

	if tag.RowsAffected() == 0 {
		stored, err := s.GetTrade(ctx, t.ID)
		if err != nil {
			return trade.Trade{}, err
		}
		if !t.SamePost(stored) {
			return trade.Trade{}, errs.Wrap(errs.ErrInvalidParams, fmt.Errorf("trade %s already exists", t.ID))
		}
		return stored, nil
	}

	return t, nil
}

// UpdateTradeStatus implements trade.Backend. The WHERE clause keeps
// completed trades from moving back to active.
func (s *Trades) UpdateTradeStatus(ctx context.Context, id string, status trade.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trades SET status = $2
		WHERE id = $1 AND (status = 'active' OR $2 = 'completed')`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("update trade status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := s.GetTrade(ctx, id); err != nil {
			return err
		}
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}

// EnsureSeed inserts trades that do not exist yet. Used in demo mode.
func (s *Trades) EnsureSeed(ctx context.Context, seed []trade.Trade) error {
	batch := &pgx.Batch{}
	for _, t := range seed {
		offering, err := json.Marshal(t.Offering)
		if err != nil {
			return err
		}
		seeking, err := json.Marshal(t.Seeking)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO trades (id, owner, title, description, offering, seeking, created_at, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Owner, t.Title, t.Description, offering, seeking, t.CreatedAt, string(t.Status))
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed trades: %w", err)
	}
	return nil
}
