package user

import "errors"

var ErrInvalidUser = errors.New("invalid user id")

// Purchase links a buyer to one of their completed orders. The history is
// append-only; an order id appears at most once per user.
type Purchase struct {
	UserID  int    `json:"userId"`
	OrderID string `json:"orderId"`
}
