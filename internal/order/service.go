package order

import "context"

// Service provides read access to orders for their owners.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Order, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// GetForUser returns the order only when userID placed it.
func (s *Service) GetForUser(ctx context.Context, userID int, id string) (Order, error) {
	ord, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if ord.UserID != userID {
		return Order{}, ErrForbidden
	}
	return ord, nil
}
