package warehouses

import (
	"context"
)

// Service coordinates warehouse master-data operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns warehouses matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Warehouse, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one warehouse by id.
func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and persists a new warehouse.
func (s *Service) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	if err := s.validate(warehouse); err != nil {
		return Warehouse{}, err
	}
	return s.repo.Create(ctx, warehouse)
}

// Update validates and re-saves a warehouse.
func (s *Service) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	if err := s.validate(warehouse); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, warehouse)
}

// Deactivate soft-deletes a warehouse and drops its default flag.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
