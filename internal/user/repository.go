package user

import (
	"context"
	"sync"
)

// Repository stores each user's purchase history.
type Repository interface {
	// AppendPurchase records orderID for userID. Appending an order id that is
	// already recorded is a no-op, so callers may retry it safely.
	AppendPurchase(ctx context.Context, userID int, orderID string) error
	// PurchaseIDs returns the recorded order ids, oldest first.
	PurchaseIDs(ctx context.Context, userID int) ([]string, error)
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	purchases map[int][]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{purchases: make(map[int][]string)}
}

func (r *InMemoryRepository) AppendPurchase(ctx context.Context, userID int, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.purchases[userID] {
		if id == orderID {
			return nil
		}
	}
	r.purchases[userID] = append(r.purchases[userID], orderID)
	return nil
}

func (r *InMemoryRepository) PurchaseIDs(ctx context.Context, userID int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.purchases[userID]))
	copy(ids, r.purchases[userID])
	return ids, nil
}
