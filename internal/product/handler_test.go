package product

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/auth/authtest"
)

func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(authtest.Identity())
	h.RegisterProtectedRoutes(app)
	return app
}

func TestProductRoutes_Registered(t *testing.T) {
	app := makeApp(NewHandler(NewService(NewInMemoryRepository(nil)), false))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /api/products",
		"GET /api/products/:id",
		"POST /api/products",
		"PUT /api/products/:id",
		"DELETE /api/products/:id",
		"POST /dev/reset-products",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestGetProduct(t *testing.T) {
	repo := NewInMemoryRepository([]Product{{ID: 12, Title: "Desk", Category: "Furniture", Price: decimal.RequireFromString("30.00"), SellerID: 1}})
	app := makeApp(NewHandler(NewService(repo), false))

	res, err := app.Test(httptest.NewRequest("GET", "/api/products/12", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), `"productId":12`) {
		t.Fatalf("unexpected body: %s", body)
	}

	res2, _ := app.Test(httptest.NewRequest("GET", "/api/products/13", nil))
	if res2.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", res2.StatusCode)
	}
	res3, _ := app.Test(httptest.NewRequest("GET", "/api/products/abc", nil))
	if res3.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", res3.StatusCode)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	app := makeApp(NewHandler(NewService(NewInMemoryRepository(nil)), false))

	req := httptest.NewRequest("POST", "/api/products", strings.NewReader(`{"title":"","category":"Pets","price":-1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authtest.Header, "3")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.StatusCode)
	}
	var out struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"title", "description", "category", "price"} {
		if out.Errors[field] == "" {
			t.Errorf("expected validation error for %s, got %v", field, out.Errors)
		}
	}

	long := strings.Repeat("x", MaxTitleLength+1)
	req2 := httptest.NewRequest("POST", "/api/products", strings.NewReader(`{"title":"`+long+`","description":"d","category":"Books","price":1}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set(authtest.Header, "3")
	res2, _ := app.Test(req2)
	if res2.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for long title, got %d", res2.StatusCode)
	}
}

func TestCreateUpdateDelete_SellerOwnership(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := makeApp(NewHandler(NewService(repo), false))

	unauth := httptest.NewRequest("POST", "/api/products", strings.NewReader(`{}`))
	unauth.Header.Set("Content-Type", "application/json")
	if res, _ := app.Test(unauth); res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("POST", "/api/products", strings.NewReader(`{"title":"Bike","description":"City bike","category":"Sports","price":"120.00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authtest.Header, "3")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d", res.StatusCode)
	}
	var created Product
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.SellerID != 3 || created.Status != StatusAvailable || !created.Price.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("unexpected created product %+v", created)
	}

	body := `{"title":"Bike","description":"Repainted","category":"Sports","price":100}`
	other := httptest.NewRequest("PUT", "/api/products/1", strings.NewReader(body))
	other.Header.Set("Content-Type", "application/json")
	other.Header.Set(authtest.Header, "4")
	if res, _ := app.Test(other); res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for another seller, got %d", res.StatusCode)
	}

	own := httptest.NewRequest("PUT", "/api/products/1", strings.NewReader(body))
	own.Header.Set("Content-Type", "application/json")
	own.Header.Set(authtest.Header, "3")
	if res, _ := app.Test(own); res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for owner update, got %d", res.StatusCode)
	}

	del := httptest.NewRequest("DELETE", "/api/products/1", nil)
	del.Header.Set(authtest.Header, "4")
	if res, _ := app.Test(del); res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for another seller delete, got %d", res.StatusCode)
	}
	del2 := httptest.NewRequest("DELETE", "/api/products/1", nil)
	del2.Header.Set(authtest.Header, "3")
	if res, _ := app.Test(del2); res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for owner delete, got %d", res.StatusCode)
	}
}

func TestResetProducts_Gated(t *testing.T) {
	repo := NewInMemoryRepository(nil)

	closed := makeApp(NewHandler(NewService(repo), false))
	if res, _ := closed.Test(httptest.NewRequest("POST", "/dev/reset-products", nil)); res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 when reset is disabled, got %d", res.StatusCode)
	}

	open := makeApp(NewHandler(NewService(repo), true))
	res, _ := open.Test(httptest.NewRequest("POST", "/dev/reset-products", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	all, _ := repo.List(context.Background())
	if len(all) != len(SampleProducts()) {
		t.Fatalf("expected %d seeded products, got %d", len(SampleProducts()), len(all))
	}
}
