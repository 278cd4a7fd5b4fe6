package cart

import (
	"context"
	"sync"
	"time"
)

// Repository stores one cart per user.
type Repository interface {
	// GetCart returns the user's cart, or an empty one when the user has none yet.
	GetCart(ctx context.Context, userID int) (Cart, error)
	// SetLines replaces the whole line list in one write.
	SetLines(ctx context.Context, userID int, lines []Line) (Cart, error)
	// ModifyLines runs fn on the current lines and stores what it returns as
	// one atomic read-modify-write. An error from fn leaves the cart untouched.
	// fn must not call back into the repository.
	ModifyLines(ctx context.Context, userID int, fn func(lines []Line) ([]Line, error)) (Cart, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	carts map[int]Cart
}

func NewInMemoryRepository(seed []Cart) *InMemoryRepository {
	r := &InMemoryRepository{carts: make(map[int]Cart, len(seed))}
	for _, c := range seed {
		c.Lines = cloneLines(c.Lines)
		r.carts[c.UserID] = c
	}
	return r
}

func (r *InMemoryRepository) GetCart(ctx context.Context, userID int) (Cart, error) {
	if err := ctx.Err(); err != nil {
		return Cart{}, err
	}
	r.mu.RLock()
	c, ok := r.carts[userID]
	r.mu.RUnlock()
	if !ok {
		return Cart{UserID: userID, Lines: []Line{}}, nil
	}
	c.Lines = cloneLines(c.Lines)
	return c, nil
}

func (r *InMemoryRepository) SetLines(ctx context.Context, userID int, lines []Line) (Cart, error) {
	if err := ctx.Err(); err != nil {
		return Cart{}, err
	}
	c := Cart{UserID: userID, Lines: cloneLines(lines), UpdatedAt: time.Now().UTC()}

	r.mu.Lock()
	r.carts[userID] = c
	r.mu.Unlock()

	c.Lines = cloneLines(c.Lines)
	return c, nil
}

func (r *InMemoryRepository) ModifyLines(ctx context.Context, userID int, fn func(lines []Line) ([]Line, error)) (Cart, error) {
	if err := ctx.Err(); err != nil {
		return Cart{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, err := fn(cloneLines(r.carts[userID].Lines))
	if err != nil {
		return Cart{}, err
	}
	c := Cart{UserID: userID, Lines: cloneLines(lines), UpdatedAt: time.Now().UTC()}
	r.carts[userID] = c

	c.Lines = cloneLines(c.Lines)
	return c, nil
}
