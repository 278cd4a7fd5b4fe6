package cart

import (
	"errors"
	"time"
)

var (
	ErrInvalidUser        = errors.New("invalid user id")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
)

// Line is one product in a cart. A cart holds at most one line per product.
type Line struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Cart belongs to exactly one user. Lines keep insertion order.
type Cart struct {
	UserID    int       `json:"userId"`
	Lines     []Line    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// Subtract removes the quantities in taken from lines, product by product.
// Lines that drop to zero are removed; everything else keeps its order.
func Subtract(lines, taken []Line) []Line {
	remove := make(map[int]int, len(taken))
	for _, l := range taken {
		remove[l.ProductID] += l.Quantity
	}
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if n := remove[l.ProductID]; n > 0 {
			take := min(n, l.Quantity)
			remove[l.ProductID] = n - take
			l.Quantity -= take
		}
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}
