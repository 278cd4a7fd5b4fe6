package user

import (
	"context"
	"errors"

	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
)

// OrderLister resolves order ids recorded in the purchase history.
type OrderLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]order.Order, error)
}

// ListingLister returns the listings a user sells.
type ListingLister interface {
	ListBySeller(ctx context.Context, sellerID int) ([]product.Product, error)
}

type Service struct {
	repo     Repository
	profiles ProfileRepository
	orders   OrderLister
	listings ListingLister
}

func NewService(repo Repository, profiles ProfileRepository, orders OrderLister, listings ListingLister) *Service {
	return &Service{repo: repo, profiles: profiles, orders: orders, listings: listings}
}

// Purchases returns the orders in the user's purchase history, newest first.
func (s *Service) Purchases(ctx context.Context, userID int) ([]order.Order, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	ids, err := s.repo.PurchaseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	return orders, nil
}

// Listings returns the products the user put up for sale.
func (s *Service) Listings(ctx context.Context, userID int) ([]product.Product, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	return s.listings.ListBySeller(ctx, userID)
}

func (s *Service) Profile(ctx context.Context, userID int) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrInvalidUser
	}
	return s.profiles.GetProfile(ctx, userID)
}

// UpdateProfile merges in into the user's profile, creating it on first
// use. A new profile needs both a username and an email.
func (s *Service) UpdateProfile(ctx context.Context, userID int, in ProfileInput) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrInvalidUser
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		p = Profile{UserID: userID}
	case err != nil:
		return Profile{}, err
	}
	if err := applyProfileInput(&p, in); err != nil {
		return Profile{}, err
	}
	return s.profiles.SaveProfile(ctx, p)
}
