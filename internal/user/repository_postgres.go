package user

import (
	"context"

	"github.com/wichananm65/ecofinds-backend/internal/database"
)

type PostgresRepository struct {
	db database.DBTX
}

const (
	appendPurchaseQuery = `
		INSERT INTO user_purchases (user_id, order_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, order_id) DO NOTHING
	`
	listPurchaseIDsQuery = `
		SELECT order_id
		FROM user_purchases
		WHERE user_id = $1
		ORDER BY created_at, order_id
	`
)

// NewPostgresRepository accepts a *sql.DB or a *sql.Tx.
func NewPostgresRepository(db database.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AppendPurchase(ctx context.Context, userID int, orderID string) error {
	_, err := r.db.ExecContext(ctx, appendPurchaseQuery, userID, orderID)
	return err
}

func (r *PostgresRepository) PurchaseIDs(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listPurchaseIDsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
