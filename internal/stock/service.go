package stock

import (
	"context"
	"fmt"
	"strconv"
)

// QueryPort abstracts the read surface of the repository.
type QueryPort interface {
	GetLevel(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error)
	ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]MovementEntry, error)
}

// QueryService serves the reporting surface over levels and the journal.
type QueryService struct {
	repo  QueryPort
	cache *Cache
}

// NewQueryService builds QueryService. The cache may be nil.
func NewQueryService(repo QueryPort, cache *Cache) *QueryService {
	return &QueryService{repo: repo, cache: cache}
}

// Level returns one (item, warehouse) row.
func (s *QueryService) Level(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error) {
	return s.repo.GetLevel(ctx, itemCode, warehouseID)
}

// Levels lists levels for the reporting filters, served through the
// versioned cache.
func (s *QueryService) Levels(ctx context.Context, filter LevelFilter) ([]StockLevel, error) {
	key, err := s.cache.BuildKey(ctx, "stock", "levels",
		filter.ItemCode,
		strconv.FormatInt(filter.WarehouseID, 10),
		fmt.Sprintf("%t:%t:%t:%d", filter.BelowMin, filter.AboveMax, filter.Negative, filter.Limit),
	)
	if err != nil {
		return nil, err
	}
	var levels []StockLevel
	err = s.cache.FetchJSON(ctx, key, &levels, func(ctx context.Context) (any, error) {
		return s.repo.ListLevels(ctx, filter)
	})
	return levels, err
}

// Movements lists live journal entries.
func (s *QueryService) Movements(ctx context.Context, filter MovementFilter) ([]MovementEntry, error) {
	return s.repo.ListMovements(ctx, filter)
}
