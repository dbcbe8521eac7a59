package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

// TradeStore keeps trades in insertion order.
type TradeStore struct {
	mu     sync.RWMutex
	trades []trade.Trade
	index  map[string]int
}

// NewTradeStore returns a store holding seed.
func NewTradeStore(seed ...trade.Trade) *TradeStore {
	s := &TradeStore{index: make(map[string]int)}
	for _, t := range seed {
		s.index[t.ID] = len(s.trades)
		s.trades = append(s.trades, t.Clone())
	}
	return s
}

// SeedTrades returns the three demo offers, created relative to now.
func SeedTrades(now time.Time) []trade.Trade {
	now = now.UTC()
	return []trade.Trade{
		{
			ID:          "1",
			Owner:       "GardenMaster",
			Title:       "Редкие семена за питомца",
			Description: "Обменяю редкие семена розы на милого кролика для сада",
			Offering:    []trade.Item{{Kind: trade.KindPlant, Name: "Семена розы", Quantity: 5}},
			Seeking:     []trade.Item{{Kind: trade.KindPet, Name: "Кролик", Quantity: 1}},
			CreatedAt:   now.Add(-2 * time.Hour),
			Status:      trade.StatusActive,
		},
		{
			ID:          "2",
			Owner:       "PetLover",
			Title:       "Котенок за шекели",
			Description: "Продаю очаровательного котенка",
			Offering:    []trade.Item{{Kind: trade.KindPet, Name: "Котенок", Quantity: 1}},
			Seeking:     []trade.Item{{Kind: trade.KindCoins, Name: "Шекели", Quantity: 50}},
			CreatedAt:   now.Add(-5 * time.Hour),
			Status:      trade.StatusActive,
		},
		{
			ID:          "3",
			Owner:       "PlantCollector",
			Title:       "Большая коллекция растений",
			Description: "Распродаю коллекцию редких растений",
			Offering: []trade.Item{
				{Kind: trade.KindPlant, Name: "Орхидея", Quantity: 3},
				{Kind: trade.KindPlant, Name: "Кактус", Quantity: 7},
			},
			Seeking:   []trade.Item{{Kind: trade.KindCoins, Name: "Шекели", Quantity: 100}},
			CreatedAt: now.Add(-24 * time.Hour),
			Status:    trade.StatusActive,
		},
	}
}

// FetchActiveTrades implements trade.Backend.
func (s *TradeStore) FetchActiveTrades(ctx context.Context) ([]trade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]trade.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if t.Status == trade.StatusActive {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// GetTrade implements trade.Backend.
func (s *TradeStore) GetTrade(ctx context.Context, id string) (trade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return trade.Trade{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return trade.Trade{}, errs.NewError(errs.ErrTradeNotFound)
	}
	return s.trades[i].Clone(), nil
}

// PostTrade implements trade.Backend. Posting a trade that is already stored
// returns the stored copy; a different trade under a taken id is rejected.
func (s *TradeStore) PostTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return trade.Trade{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, exists := s.index[t.ID]; exists {
		if stored := s.trades[i]; t.SamePost(stored) {
			return stored.Clone(), nil
		}
		return trade.Trade{}, errs.Wrap(errs.ErrInvalidParams, fmt.Errorf("trade %q already exists", t.ID))
	}

	s.index[t.ID] = len(s.trades)
	s.trades = append(s.trades, t.Clone())

	return t.Clone(), nil
}

// UpdateTradeStatus implements trade.Backend. A completed trade never
// returns to active.
func (s *TradeStore) UpdateTradeStatus(ctx context.Context, id string, status trade.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return errs.NewError(errs.ErrTradeNotFound)
	}

	if s.trades[i].Status == trade.StatusCompleted && status != trade.StatusCompleted {
		return errs.NewError(errs.ErrInvalidParams)
	}

	s.trades[i].Status = status
	return nil
}

// Len returns the number of stored trades, including completed ones.
func (s *TradeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}
