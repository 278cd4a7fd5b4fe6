package checkout

import (
	"context"

	"github.com/wichananm65/ecofinds-backend/internal/cart"
	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
)

type CartStore interface {
	GetCart(ctx context.Context, userID int) (cart.Cart, error)
	ModifyLines(ctx context.Context, userID int, fn func(lines []cart.Line) ([]cart.Line, error)) (cart.Cart, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
	MarkSold(ctx context.Context, id int) (product.Product, error)
	RestoreAvailable(ctx context.Context, id int) (product.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, ord order.Order) (order.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (order.Order, error)
}

type PurchaseRecorder interface {
	AppendPurchase(ctx context.Context, userID int, orderID string) error
}

// Stores groups the collaborators a checkout touches.
type Stores struct {
	Carts     CartStore
	Products  ProductStore
	Orders    OrderStore
	Purchases PurchaseRecorder
}

// TxRunner runs fn against stores bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
