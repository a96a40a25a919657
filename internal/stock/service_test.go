package stock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryQueries struct {
	levels    []StockLevel
	listCalls int
}

func (m *memoryQueries) GetLevel(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error) {
	for _, level := range m.levels {
		if level.ItemCode == itemCode && level.WarehouseID == warehouseID {
			return level, nil
		}
	}
	return StockLevel{}, ErrLevelNotFound
}

func (m *memoryQueries) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error) {
	m.listCalls++
	return m.levels, nil
}

func (m *memoryQueries) ListMovements(ctx context.Context, filter MovementFilter) ([]MovementEntry, error) {
	return nil, nil
}

func TestQueryServiceLevel(t *testing.T) {
	repo := &memoryQueries{levels: []StockLevel{
		{ItemCode: "WIDGET", WarehouseID: 1, InStock: decimal.NewFromInt(3)},
	}}
	svc := NewQueryService(repo, nil)

	level, err := svc.Level(context.Background(), "WIDGET", 1)
	require.NoError(t, err)
	require.True(t, level.InStock.Equal(decimal.NewFromInt(3)))

	_, err = svc.Level(context.Background(), "WIDGET", 9)
	require.ErrorIs(t, err, ErrLevelNotFound)
}

func TestQueryServiceLevelsCached(t *testing.T) {
	repo := &memoryQueries{levels: []StockLevel{
		{ItemCode: "WIDGET", WarehouseID: 1, InStock: decimal.NewFromInt(3)},
	}}
	cache := newTestCache(t)
	svc := NewQueryService(repo, cache)
	ctx := context.Background()

	first, err := svc.Levels(ctx, LevelFilter{ItemCode: "WIDGET"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Levels(ctx, LevelFilter{ItemCode: "WIDGET"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.listCalls, "repeat query is served from cache")

	require.NoError(t, cache.Invalidate(ctx))
	_, err = svc.Levels(ctx, LevelFilter{ItemCode: "WIDGET"})
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls, "invalidation forces a reload")
}
