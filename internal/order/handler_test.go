package order

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/ecofinds-backend/internal/auth/authtest"
)

func setupApp(t *testing.T) (*fiber.App, Order) {
	t.Helper()
	repo := NewInMemoryRepository()
	ord, err := repo.Create(context.Background(), sampleOrder(42, ""))
	if err != nil {
		t.Fatal(err)
	}
	a := fiber.New()
	a.Use(authtest.Identity())
	NewHandler(NewService(repo)).RegisterProtectedRoutes(a)
	return a, ord
}

func TestGetOrders(t *testing.T) {
	a, ord := setupApp(t)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set(authtest.Header, "42")
	res, err := a.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var body struct {
		Results int     `json:"results"`
		Orders  []Order `json:"orders"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Results != 1 || body.Orders[0].ID != ord.ID {
		t.Fatalf("unexpected orders %+v", body)
	}

	res, _ = a.Test(httptest.NewRequest("GET", "/api/orders", nil), -1)
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", res.StatusCode)
	}
}

func TestGetOrder_Ownership(t *testing.T) {
	a, ord := setupApp(t)

	req := httptest.NewRequest("GET", "/api/orders/"+ord.ID, nil)
	req.Header.Set(authtest.Header, "42")
	res, _ := a.Test(req, -1)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/orders/"+ord.ID, nil)
	req.Header.Set(authtest.Header, "43")
	res, _ = a.Test(req, -1)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for another user, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/orders/unknown", nil)
	req.Header.Set(authtest.Header, "42")
	res, _ = a.Test(req, -1)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", res.StatusCode)
	}
}
