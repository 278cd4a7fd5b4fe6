package product

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

func seedRepo() *InMemoryRepository {
	return NewInMemoryRepository([]Product{
		{ID: 1, Title: "Jacket", Category: "Clothing", Price: decimal.RequireFromString("10.00"), SellerID: 5},
		{ID: 2, Title: "Lamp", Category: "Furniture", Price: decimal.RequireFromString("4.50"), SellerID: 6, Status: StatusPending},
		{ID: 3, Title: "Novel", Category: "Books", Price: decimal.RequireFromString("2.25"), SellerID: 5, Status: StatusSold},
	})
}

func TestInMemoryMarkSold_Transitions(t *testing.T) {
	ctx := context.Background()
	r := seedRepo()

	p, err := r.MarkSold(ctx, 1)
	if err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if p.Status != StatusSold {
		t.Fatalf("expected sold, got %s", p.Status)
	}

	if _, err := r.MarkSold(ctx, 1); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}
	if _, err := r.MarkSold(ctx, 2); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable for pending, got %v", err)
	}
	if _, err := r.MarkSold(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	restored, err := r.RestoreAvailable(ctx, 1)
	if err != nil || restored.Status != StatusAvailable {
		t.Fatalf("restore: %+v %v", restored, err)
	}
	if _, err := r.RestoreAvailable(ctx, 1); !errors.Is(err, ErrNotSold) {
		t.Fatalf("expected ErrNotSold, got %v", err)
	}
}

func TestInMemoryMarkSold_SingleWinner(t *testing.T) {
	r := seedRepo()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.MarkSold(context.Background(), 1); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestInMemoryListing(t *testing.T) {
	ctx := context.Background()
	r := seedRepo()

	mine, _ := r.ListBySeller(ctx, 5)
	if len(mine) != 2 {
		t.Fatalf("expected 2 listings for seller 5, got %d", len(mine))
	}

	got, _ := r.ListByIDs(ctx, []int{3, 42, 1})
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Fatalf("unexpected ListByIDs result %+v", got)
	}

	created, _ := r.Create(ctx, Product{Title: "New", SellerID: 7})
	if created.ID != 4 || created.Status != StatusAvailable {
		t.Fatalf("unexpected created product %+v", created)
	}

	if err := r.Delete(ctx, 4); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetByID(ctx, 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted product to be gone, got %v", err)
	}
}
