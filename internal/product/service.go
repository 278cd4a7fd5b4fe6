package product

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/category"
)

var ErrForbidden = errors.New("product belongs to another seller")

// Input is the writable part of a listing as sent by the client.
type Input struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       *decimal.Decimal `json:"price"`
}

// ValidationError carries every field problem found in an Input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid product payload"
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID int) ([]Product, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) Create(ctx context.Context, sellerID int, in Input) (Product, error) {
	if err := validateInput(&in); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, Product{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       *in.Price,
		SellerID:    sellerID,
		Status:      StatusAvailable,
	})
}

func (s *Service) Update(ctx context.Context, sellerID, id int, in Input) (Product, error) {
	if err := validateInput(&in); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if existing.SellerID != sellerID {
		return Product{}, ErrForbidden
	}
	existing.Title = in.Title
	existing.Description = in.Description
	existing.Category = in.Category
	existing.Price = *in.Price
	return s.repo.Update(ctx, id, existing)
}

func (s *Service) Delete(ctx context.Context, sellerID, id int) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.SellerID != sellerID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// ResetProducts replaces all products with the given list (used for dev / seeding).
func (s *Service) ResetProducts(ctx context.Context, products []Product) error {
	return s.repo.Reset(ctx, products)
}

// validateInput trims the text fields in place and reports all problems at once.
func validateInput(in *Input) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	errs := map[string]string{}
	switch {
	case in.Title == "":
		errs["title"] = "title is required"
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		errs["title"] = "title must be at most 100 characters"
	}
	switch {
	case in.Description == "":
		errs["description"] = "description is required"
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLength:
		errs["description"] = "description must be at most 1000 characters"
	}
	if !category.Valid(in.Category) {
		errs["category"] = "invalid category"
	}
	switch {
	case in.Price == nil:
		errs["price"] = "price is required"
	case in.Price.IsNegative():
		errs["price"] = "price must be >= 0"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
