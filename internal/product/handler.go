package product

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/auth"
)

type Handler struct {
	service    *Service
	allowReset bool
}

// NewHandler builds the product routes. allowReset enables the dev-only
// catalogue reset endpoint (ALLOW_RESET_PRODUCTS=1).
func NewHandler(service *Service, allowReset bool) *Handler {
	return &Handler{service: service, allowReset: allowReset}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/products", h.getProducts)
	app.Get("/api/products/:id", h.getProduct)

	app.Post("/dev/reset-products", h.resetProducts)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/products", h.createProduct)
	app.Put("/api/products/:id", h.updateProduct)
	app.Delete("/api/products/:id", h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

// resetProducts clears the products and inserts the provided list (or a default sample list).
func (h *Handler) resetProducts(c *fiber.Ctx) error {
	if !h.allowReset {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "reset not allowed"})
	}

	var products []Product
	// If body parsing fails, fallback to default sample products.
	// If parsing succeeds and client sends an empty array, treat it as "delete all" (no re-seeding).
	if err := c.BodyParser(&products); err != nil {
		products = SampleProducts()
	}

	if err := h.service.ResetProducts(c.UserContext(), products); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

// SampleProducts is the seed catalogue for local development.
func SampleProducts() []Product {
	return []Product{
		{Title: "Vintage Denim Jacket", Description: "Lightly worn, size M", Category: "Clothing", Price: decimal.RequireFromString("35.00"), SellerID: 1},
		{Title: "Refurbished Laptop Stand", Description: "Aluminium, adjustable height", Category: "Electronics", Price: decimal.RequireFromString("18.50"), SellerID: 1},
		{Title: "Paperback Classics Bundle", Description: "Five novels in good condition", Category: "Books", Price: decimal.RequireFromString("12.00"), SellerID: 2},
		{Title: "Oak Side Table", Description: "Solid wood, minor scratches", Category: "Furniture", Price: decimal.RequireFromString("60.00"), SellerID: 2},
	}
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	sellerID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	var in Input
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	created, err := h.service.Create(c.UserContext(), sellerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	sellerID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	var in Input
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	updated, err := h.service.Update(c.UserContext(), sellerID, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	sellerID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	if err := h.service.Delete(c.UserContext(), sellerID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func writeError(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": ve.Fields})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
