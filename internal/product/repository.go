package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrAlreadySold  = errors.New("product already sold")
	ErrNotAvailable = errors.New("product is not available")
	ErrNotSold      = errors.New("product is not sold")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListBySeller(ctx context.Context, sellerID int) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	// ListByIDs returns the products that exist among ids, in ids order.
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (Product, error)
	Delete(ctx context.Context, id int) error

	// MarkSold moves a product from available to sold as a single
	// compare-and-set. It returns ErrAlreadySold when the product is sold and
	// ErrNotAvailable when it is pending.
	MarkSold(ctx context.Context, id int) (Product, error)
	// RestoreAvailable undoes MarkSold (sold -> available). It returns
	// ErrNotSold when the product is not currently sold.
	RestoreAvailable(ctx context.Context, id int) (Product, error)

	// Reset replaces all products with the provided list (used for dev / seeding)
	Reset(ctx context.Context, products []Product) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// seeding local data.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
	}

	maxID := 0
	for _, p := range seed {
		if p.Status == "" {
			p.Status = StatusAvailable
		}
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

// List returns products newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, len(r.storage))
	copy(out, r.storage)
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) ListBySeller(ctx context.Context, sellerID int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range r.storage {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := make(map[int]Product, len(r.storage))
	for _, p := range r.storage {
		byID[p.ID] = p
	}
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p.ID = id
			p.SellerID = r.storage[i].SellerID
			p.CreatedAt = r.storage[i].CreatedAt
			// status only moves through MarkSold and RestoreAvailable
			p.Status = r.storage[i].Status
			p.UpdatedAt = time.Now().UTC()
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) MarkSold(ctx context.Context, id int) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	return r.transition(id, StatusAvailable, StatusSold)
}

func (r *InMemoryRepository) RestoreAvailable(ctx context.Context, id int) (Product, error) {
	return r.transition(id, StatusSold, StatusAvailable)
}

// transition sets status to `to` only when it currently equals `from`.
func (r *InMemoryRepository) transition(id int, from, to Status) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID != id {
			continue
		}
		if r.storage[i].Status != from {
			return Product{}, transitionError(from, r.storage[i].Status)
		}
		r.storage[i].Status = to
		r.storage[i].UpdatedAt = time.Now().UTC()
		return r.storage[i], nil
	}
	return Product{}, ErrNotFound
}

// Reset replaces the whole in-memory storage with the provided products.
func (r *InMemoryRepository) Reset(ctx context.Context, products []Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = make([]Product, 0, len(products))
	maxID := 0
	now := time.Now().UTC()
	for _, p := range products {
		if p.ID == 0 {
			p.ID = r.nextID
			r.nextID++
		}
		if p.Status == "" {
			p.Status = StatusAvailable
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	if maxID >= r.nextID {
		r.nextID = maxID + 1
	}
	return nil
}

// transitionError maps the status found during a failed compare-and-set to
// the error callers match on.
func transitionError(from, current Status) error {
	if from == StatusAvailable {
		if current == StatusSold {
			return ErrAlreadySold
		}
		return ErrNotAvailable
	}
	return ErrNotSold
}

func sortNewestFirst(ps []Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
