package items

import (
	"context"
)

// Service coordinates item master-data operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns items matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one item by id.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode returns one item by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (Item, error) {
	return s.repo.GetByCode(ctx, code)
}

// Create validates and persists a new item.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	if err := s.validate(item); err != nil {
		return Item{}, err
	}
	return s.repo.Create(ctx, item)
}

// Update validates and re-saves an item.
func (s *Service) Update(ctx context.Context, id int64, item Item) error {
	if err := s.validate(item); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, item)
}

// Deactivate soft-deletes an item. Stock levels referencing it remain.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
