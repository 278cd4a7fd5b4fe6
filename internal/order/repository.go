package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for orders.
type Repository interface {
	// Create assigns a fresh id and createdAt and stores the order. An order
	// whose (user, idempotency key) pair already exists yields ErrDuplicateKey.
	Create(ctx context.Context, ord Order) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	// ListByIDs returns the orders whose id is present in the provided slice,
	// in the same order. An empty slice returns an empty result.
	ListByIDs(ctx context.Context, ids []string) ([]Order, error)
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (Order, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make([]Order, 0)}
}

func (r *InMemoryRepository) Create(ctx context.Context, ord Order) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if ord.IdempotencyKey != "" {
		for _, o := range r.orders {
			if o.UserID == ord.UserID && o.IdempotencyKey == ord.IdempotencyKey {
				return Order{}, ErrDuplicateKey
			}
		}
	}
	ord.ID = uuid.NewString()
	ord.CreatedAt = time.Now().UTC()
	ord.Items = cloneItems(ord.Items)
	r.orders = append(r.orders, ord)
	return ord, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			o.Items = cloneItems(o.Items)
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		if o := r.orders[i]; o.UserID == userID {
			o.Items = cloneItems(o.Items)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) ListByIDs(ctx context.Context, ids []string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID := make(map[string]Order, len(r.orders))
	for _, o := range r.orders {
		byID[o.ID] = o
	}
	out := make([]Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			o.Items = cloneItems(o.Items)
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (Order, error) {
	if key == "" {
		return Order{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			o.Items = cloneItems(o.Items)
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
