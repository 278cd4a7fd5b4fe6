package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the availability of a listing.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	}
	return false
}

// Product is a second-hand listing and maps to the `products` table.
// SellerID is a lookup reference only; products are never deleted by checkout.
type Product struct {
	ID          int             `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	SellerID    int             `json:"sellerId"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)
