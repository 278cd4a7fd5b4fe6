package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const StatusCompleted = "completed"

var (
	ErrNotFound     = errors.New("order not found")
	ErrDuplicateKey = errors.New("order with this idempotency key already exists")
	ErrForbidden    = errors.New("you can only view your own orders")
	ErrNoItems      = errors.New("order has no items")
	ErrInvalidTotal = errors.New("order total does not match its items")
)

// Item is one purchased product with the price captured at checkout.
type Item struct {
	ProductID       int             `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// Subtotal is quantity × priceAtPurchase.
func (i Item) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is immutable once created.
type Order struct {
	ID             string          `json:"id"`
	UserID         int             `json:"userId"`
	Items          []Item          `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status"`
	IdempotencyKey string          `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Validate checks the invariants every stored order satisfies.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	if !o.TotalAmount.Equal(Total(o.Items)) {
		return ErrInvalidTotal
	}
	return nil
}
