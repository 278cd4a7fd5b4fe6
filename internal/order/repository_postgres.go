package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wichananm65/ecofinds-backend/internal/database"
)

type PostgresRepository struct {
	db database.DBTX
}

const orderColumns = `id, user_id, items, total_amount, status, COALESCE(idempotency_key, ''), created_at`

const (
	insertOrderQuery = `
		INSERT INTO orders (id, user_id, items, total_amount, status, idempotency_key, created_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6, ''),$7)
	`
	getOrderByIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	listOrdersByIDsQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = ANY($1::uuid[])
		ORDER BY array_position($1::uuid[], id)
	`
	getOrderByKeyQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`
)

// NewPostgresRepository accepts a *sql.DB or a *sql.Tx.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, ord Order) (Order, error) {
	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return Order{}, err
	}
	ord.ID = uuid.NewString()
	ord.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, insertOrderQuery,
		ord.ID, ord.UserID, string(itemsJSON), ord.TotalAmount, ord.Status, ord.IdempotencyKey, ord.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Order{}, ErrDuplicateKey
		}
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, ErrNotFound
	}
	return r.getOne(ctx, getOrderByIDQuery, id)
}

func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (Order, error) {
	if key == "" {
		return Order{}, ErrNotFound
	}
	return r.getOne(ctx, getOrderByKeyQuery, userID, key)
}

func (r *PostgresRepository) getOne(ctx context.Context, q string, args ...any) (Order, error) {
	ord, err := scanOrder(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return ord, err
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return r.query(ctx, listOrdersByUserQuery, userID)
}

// ListByIDs returns orders matching the given ids. The results are ordered
// according to the sequence of ids in the slice. An empty slice leads to an
// immediate empty result.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]Order, error) {
	if len(ids) == 0 {
		return []Order{}, nil
	}
	return r.query(ctx, listOrdersByIDsQuery, pq.Array(ids))
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(scanner rowScanner) (Order, error) {
	var (
		ord       Order
		itemsJSON []byte
	)
	if err := scanner.Scan(&ord.ID, &ord.UserID, &itemsJSON, &ord.TotalAmount, &ord.Status, &ord.IdempotencyKey, &ord.CreatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(itemsJSON, &ord.Items); err != nil {
		return Order{}, err
	}
	return ord, nil
}
