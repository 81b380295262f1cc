package memory

import (
	"context"
	"sort"
	"sync"

	"ladder-quiz-service/internal/domain"
)

// Ledger keeps player balances in memory. Each game is credited at most once.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int
	credited map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]int),
		credited: make(map[string]struct{}),
	}
}

func (l *Ledger) Credit(_ context.Context, userID, gameID string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.credited[gameID]; ok {
		return nil
	}
	l.credited[gameID] = struct{}{}
	l.balances[userID] += amount
	return nil
}

func (l *Ledger) Balance(_ context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

// TopBalances ranks players by balance, ties broken by user id.
func (l *Ledger) TopBalances(_ context.Context, limit int) ([]domain.PlayerBalance, error) {
	l.mu.Lock()
	out := make([]domain.PlayerBalance, 0, len(l.balances))
	for userID, balance := range l.balances {
		out = append(out, domain.PlayerBalance{UserID: userID, Balance: balance})
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
