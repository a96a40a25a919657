package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReorderScanJob sweeps stock levels and flags items at or below their
// reorder point so procurement can act before a stockout.
type ReorderScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewReorderScanJob initialises the reorder scan handler.
func NewReorderScanJob(pool *pgxpool.Pool, logger *slog.Logger) *ReorderScanJob {
	return &ReorderScanJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the reorder scan logic.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reorder scan: handler not configured")
	}
	var payload ReorderScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 500
	}

	start := j.now()
	logger := j.logger()
	logger.Info("starting reorder scan", slog.Int("limit", payload.Limit))

	alerts, err := j.scan(ctx, payload)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, a := range alerts {
		logger.Warn("reorder point reached",
			slog.String("item_code", a.ItemCode),
			slog.Int64("warehouse_id", a.WarehouseID),
			slog.String("severity", a.Severity),
			slog.String("in_stock", a.InStock.String()),
			slog.String("available", a.Available.String()),
			slog.String("reorder_point", a.ReorderPoint.String()),
			slog.String("shortfall", a.Shortfall.String()),
		)
	}

	logger.Info("completed reorder scan",
		slog.Int("alerts", len(alerts)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ReorderScanJob) scan(ctx context.Context, payload ReorderScanPayload) ([]reorderAlert, error) {
	if j.Pool == nil {
		return nil, errors.New("reorder scan: pool not configured")
	}
	query := `SELECT item_code, warehouse_id, in_stock, available, min_stock, reorder_point
FROM stock_levels
WHERE active AND reorder_point > 0 AND in_stock <= reorder_point`
	args := []any{}
	if payload.WarehouseID > 0 {
		query += ` AND warehouse_id=$1`
		args = append(args, payload.WarehouseID)
	}
	query += ` ORDER BY item_code, warehouse_id LIMIT ` + itoa(payload.Limit)

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]reorderAlert, 0)
	for rows.Next() {
		var a reorderAlert
		var minStock decimal.Decimal
		if err := rows.Scan(&a.ItemCode, &a.WarehouseID, &a.InStock, &a.Available, &minStock, &a.ReorderPoint); err != nil {
			return nil, err
		}
		a.Shortfall = a.ReorderPoint.Sub(a.InStock)
		switch {
		case a.Available.Sign() < 0 || a.InStock.LessThan(minStock):
			a.Severity = "HIGH"
		default:
			a.Severity = "MEDIUM"
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (j *ReorderScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockReorderScan))
	}
	return slog.Default().With(slog.String("job", TaskStockReorderScan))
}

func (j *ReorderScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

type reorderAlert struct {
	ItemCode     string
	WarehouseID  int64
	InStock      decimal.Decimal
	Available    decimal.Decimal
	ReorderPoint decimal.Decimal
	Shortfall    decimal.Decimal
	Severity     string
}
