package checkout

import (
	"context"
	"database/sql"

	"github.com/wichananm65/ecofinds-backend/internal/cart"
	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
	"github.com/wichananm65/ecofinds-backend/internal/user"
)

// SQLTxRunner binds the Postgres repositories to a single *sql.Tx.
type SQLTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

func (r *SQLTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	s := Stores{
		Carts:     cart.NewPostgresRepository(tx),
		Products:  product.NewPostgresRepository(tx),
		Orders:    order.NewPostgresRepository(tx),
		Purchases: user.NewPostgresRepository(tx),
	}
	if err := fn(ctx, s); err != nil {
		return err
	}
	return tx.Commit()
}
