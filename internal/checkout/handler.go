package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/ecofinds-backend/internal/auth"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

type Handler struct {
	service *Service
	timeout time.Duration
}

// NewHandler bounds each checkout by timeout. Zero disables the bound.
func NewHandler(s *Service, timeout time.Duration) *Handler {
	return &Handler{service: s, timeout: timeout}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/orders/checkout", h.checkout)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.service.Checkout(ctx, Request{UserID: userID, IdempotencyKey: c.Get(IdempotencyKeyHeader)})
	if err != nil {
		return writeError(c, err)
	}
	if res.Replayed {
		c.Set(ReplayedHeader, "true")
		return c.JSON(fiber.Map{"message": "Order already placed", "order": res.Order})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order placed successfully", "order": res.Order})
}

func writeError(c *fiber.Ctx, err error) error {
	var (
		notFound    *ProductNotFoundError
		unavailable *ProductUnavailableError
		conflict    *ConflictError
		storage     *StorageError
		reconcile   *ReconciliationError
	)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cart is empty"})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error(), "productId": notFound.ProductID})
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "productId": unavailable.ProductID})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "productId": conflict.ProductID, "retryable": true})
	case errors.As(err, &reconcile):
		body := fiber.Map{"message": "Checkout could not be completed automatically, please contact support"}
		if reconcile.OrderID != "" {
			body["orderId"] = reconcile.OrderID
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	case errors.As(err, &storage) && storage.RolledBack:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Checkout failed and was rolled back, please retry", "retryable": true})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
}
