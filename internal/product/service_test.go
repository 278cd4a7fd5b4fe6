package product

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

// soldAfterRead sells the product right after the service has read it, the
// way a checkout landing between a seller's read and write would.
type soldAfterRead struct {
	*InMemoryRepository
	once sync.Once
}

func (r *soldAfterRead) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := r.InMemoryRepository.GetByID(ctx, id)
	r.once.Do(func() {
		if _, err := r.InMemoryRepository.MarkSold(ctx, id); err != nil {
			panic(err)
		}
	})
	return p, err
}

func validInput(title string) Input {
	price := decimal.RequireFromString("11.00")
	return Input{Title: title, Category: "Clothing", Price: &price}
}

func TestServiceUpdate_KeepsSoldStatus(t *testing.T) {
	ctx := context.Background()
	repo := &soldAfterRead{InMemoryRepository: seedRepo()}

	updated, err := NewService(repo).Update(ctx, 5, 1, validInput("Denim Jacket"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusSold {
		t.Fatalf("expected returned status sold, got %s", updated.Status)
	}
	stored, err := repo.InMemoryRepository.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusSold {
		t.Fatalf("expected stored status sold, got %s", stored.Status)
	}
	if stored.Title != "Denim Jacket" {
		t.Fatalf("expected title to change, got %q", stored.Title)
	}
}

func TestInMemoryUpdate_IgnoresStatusInPayload(t *testing.T) {
	ctx := context.Background()
	r := seedRepo()

	p, err := r.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.Status = StatusAvailable
	p.SellerID = 99
	if _, err := r.Update(ctx, 3, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := r.GetByID(ctx, 3)
	if stored.Status != StatusSold {
		t.Fatalf("expected status to stay sold, got %s", stored.Status)
	}
	if stored.SellerID != 5 {
		t.Fatalf("expected seller to stay 5, got %d", stored.SellerID)
	}
}

func TestServiceUpdate_OtherSellerForbidden(t *testing.T) {
	_, err := NewService(seedRepo()).Update(context.Background(), 6, 1, validInput("Mine now"))
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
