package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/product"
)

// ProductReader is the part of the product service the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

// ViewItem is a cart line with the current product details attached.
// Product is nil when the listing was deleted after it was added.
type ViewItem struct {
	ProductID int              `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product"`
}

// View is the cart as returned to the client.
type View struct {
	Items    []ViewItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Service orchestrates cart operations. Every write is a ModifyLines call so
// concurrent writers for the same user, in this process or another, never
// lose each other's lines.
type Service struct {
	repo     Repository
	products ProductReader
}

func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) Get(ctx context.Context, userID int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrInvalidUser
	}
	return s.repo.GetCart(ctx, userID)
}

// Add puts qty units of a product in the cart, merging with an existing
// line. qty 0 means 1. Only available products can be added.
func (s *Service) Add(ctx context.Context, userID, productID, qty int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrInvalidUser
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return Cart{}, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Cart{}, ErrProductNotFound
		}
		return Cart{}, err
	}
	if p.Status != product.StatusAvailable {
		return Cart{}, ErrProductUnavailable
	}

	return s.repo.ModifyLines(ctx, userID, func(lines []Line) ([]Line, error) {
		if idx := indexOf(lines, productID); idx >= 0 {
			lines[idx].Quantity += qty
			return lines, nil
		}
		return append(lines, Line{ProductID: productID, Quantity: qty}), nil
	})
}

// UpdateQuantity sets the quantity of an existing line; qty <= 0 removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID, qty int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrInvalidUser
	}

	return s.repo.ModifyLines(ctx, userID, func(lines []Line) ([]Line, error) {
		idx := indexOf(lines, productID)
		if idx < 0 {
			return nil, ErrItemNotFound
		}
		if qty <= 0 {
			return append(lines[:idx], lines[idx+1:]...), nil
		}
		lines[idx].Quantity = qty
		return lines, nil
	})
}

// Remove drops a product from the cart. Removing an absent product is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID int) (Cart, error) {
	if userID <= 0 {
		return Cart{}, ErrInvalidUser
	}

	return s.repo.ModifyLines(ctx, userID, func(lines []Line) ([]Line, error) {
		if idx := indexOf(lines, productID); idx >= 0 {
			return append(lines[:idx], lines[idx+1:]...), nil
		}
		return lines, nil
	})
}

// Clear empties a user's cart.
func (s *Service) Clear(ctx context.Context, userID int) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	_, err := s.repo.SetLines(ctx, userID, []Line{})
	return err
}

// View resolves the product of every line and sums the price of lines whose
// product is still available.
func (s *Service) View(ctx context.Context, c Cart) (View, error) {
	ids := make([]int, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	v := View{Items: make([]ViewItem, 0, len(c.Lines)), Subtotal: decimal.Zero}
	for _, l := range c.Lines {
		item := ViewItem{ProductID: l.ProductID, Quantity: l.Quantity}
		if p, ok := byID[l.ProductID]; ok {
			item.Product = &p
			if p.Status == product.StatusAvailable {
				v.Subtotal = v.Subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
		}
		v.Items = append(v.Items, item)
	}
	return v, nil
}

func indexOf(lines []Line, productID int) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
