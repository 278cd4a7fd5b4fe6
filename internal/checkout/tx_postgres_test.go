package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/ecofinds-backend/internal/cart"
	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
	"github.com/wichananm65/ecofinds-backend/internal/user"
)

var productCols = []string{"id", "title", "description", "category", "price", "seller_id", "status", "created_at", "updated_at"}

func newPostgresService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := Stores{
		Carts:     cart.NewPostgresRepository(db),
		Products:  product.NewPostgresRepository(db),
		Orders:    order.NewPostgresRepository(db),
		Purchases: user.NewPostgresRepository(db),
	}
	return NewService(st, Options{Tx: NewSQLTxRunner(db), Concurrency: 1}), mock
}

func expectCartAndProduct(mock sqlmock.Sqlmock, status string) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT lines, updated_at FROM carts").WithArgs(buyer).
		WillReturnRows(sqlmock.NewRows([]string{"lines", "updated_at"}).AddRow([]byte(`[{"productId":5,"quantity":1}]`), now))
	mock.ExpectQuery("SELECT id, title").WithArgs(5).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Jacket", "Warm", "Clothing", "12.50", 3, status, now, now))
}

func TestSQLTx_CheckoutCommits(t *testing.T) {
	svc, mock := newPostgresService(t)
	now := time.Now().UTC()

	expectCartAndProduct(mock, "available")
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Jacket", "Warm", "Clothing", "12.50", 3, "sold", now, now))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(sqlmock.AnyArg(), buyer, sqlmock.AnyArg(), sqlmock.AnyArg(), "completed", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_purchases").WithArgs(buyer, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectLockedCart(mock, `[{"productId":5,"quantity":1}]`, "[]")
	mock.ExpectCommit()

	res, err := svc.Checkout(context.Background(), Request{UserID: buyer})
	require.NoError(t, err)
	require.NotEmpty(t, res.Order.ID)
	require.Equal(t, "12.5", res.Order.TotalAmount.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

// expectLockedCart expects the cart row to be locked inside the checkout
// transaction and rewritten from what the lock returned.
func expectLockedCart(mock sqlmock.Sqlmock, locked, written string) {
	mock.ExpectExec("INSERT INTO carts .* DO NOTHING").WithArgs(buyer).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT lines, updated_at FROM carts .* FOR UPDATE").WithArgs(buyer).
		WillReturnRows(sqlmock.NewRows([]string{"lines", "updated_at"}).AddRow([]byte(locked), time.Now().UTC()))
	mock.ExpectExec("INSERT INTO carts .* DO UPDATE").WithArgs(buyer, written, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestSQLTx_CheckoutKeepsNewerCartLines(t *testing.T) {
	svc, mock := newPostgresService(t)
	now := time.Now().UTC()

	expectCartAndProduct(mock, "available")
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Jacket", "Warm", "Clothing", "12.50", 3, "sold", now, now))
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_purchases").WithArgs(buyer, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// product 6 went into the cart after the checkout read it
	expectLockedCart(mock, `[{"productId":5,"quantity":1},{"productId":6,"quantity":1}]`, `[{"productId":6,"quantity":1}]`)
	mock.ExpectCommit()

	res, err := svc.Checkout(context.Background(), Request{UserID: buyer})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTx_LostRaceRollsBack(t *testing.T) {
	svc, mock := newPostgresService(t)

	expectCartAndProduct(mock, "available")
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols))
	mock.ExpectQuery("SELECT status FROM products").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("sold"))
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), Request{UserID: buyer})
	require.ErrorIs(t, err, ErrConcurrentSale)
	require.True(t, Retryable(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTx_WriteFailureRollsBack(t *testing.T) {
	svc, mock := newPostgresService(t)
	now := time.Now().UTC()

	expectCartAndProduct(mock, "available")
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").WithArgs(5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Jacket", "Warm", "Clothing", "12.50", 3, "sold", now, now))
	mock.ExpectExec("INSERT INTO orders").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), Request{UserID: buyer})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.True(t, se.RolledBack)
	require.Equal(t, "create order", se.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTx_UnavailableNeverOpensTransaction(t *testing.T) {
	svc, mock := newPostgresService(t)

	expectCartAndProduct(mock, "pending")

	_, err := svc.Checkout(context.Background(), Request{UserID: buyer})
	require.ErrorIs(t, err, ErrProductUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
