package stock

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists the ledger and journal in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrLevelNotFound indicates a missing stock level row.
var ErrLevelNotFound = errors.New("stock level not found")

type txRepository struct {
	tx pgx.Tx
}

// Bind wraps a transaction opened elsewhere (the document write path) so the
// engine's writes commit or roll back together with the triggering write.
func (r *Repository) Bind(tx pgx.Tx) Tx {
	return &txRepository{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction owned by
// this repository. Used when no surrounding document transaction exists.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) GetItem(ctx context.Context, code string) (Item, error) {
	var item Item
	err := r.tx.QueryRow(ctx, `SELECT code, COALESCE(default_warehouse_id, 0), min_stock, max_stock, reorder_point
FROM items WHERE code=$1 AND active`, code).
		Scan(&item.Code, &item.DefaultWarehouseID, &item.MinStock, &item.MaxStock, &item.ReorderPoint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrUnknownItem
		}
		return Item{}, err
	}
	return item, nil
}

func (r *txRepository) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	var wh Warehouse
	err := r.tx.QueryRow(ctx, `SELECT id, code, active, is_default FROM warehouses WHERE id=$1`, id).
		Scan(&wh.ID, &wh.Code, &wh.IsActive, &wh.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, ErrUnknownWarehouse
		}
		return Warehouse{}, err
	}
	return wh, nil
}

func (r *txRepository) GetLevelForUpdate(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error) {
	var level StockLevel
	err := r.tx.QueryRow(ctx, `SELECT item_code, warehouse_id, in_stock, committed, on_order, available, min_stock, max_stock, reorder_point, created_at, updated_at, active
FROM stock_levels WHERE item_code=$1 AND warehouse_id=$2 FOR UPDATE`, itemCode, warehouseID).
		Scan(&level.ItemCode, &level.WarehouseID, &level.InStock, &level.Committed, &level.OnOrder,
			&level.Available, &level.MinStock, &level.MaxStock, &level.ReorderPoint,
			&level.Audit.CreatedAt, &level.Audit.UpdatedAt, &level.Audit.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, ErrLevelNotFound
		}
		return StockLevel{}, err
	}
	return level, nil
}

func (r *txRepository) UpsertLevel(ctx context.Context, level StockLevel) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_levels (item_code, warehouse_id, in_stock, committed, on_order, available, min_stock, max_stock, reorder_point, created_at, updated_at, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW(),$10)
ON CONFLICT (item_code, warehouse_id) DO UPDATE
SET in_stock=EXCLUDED.in_stock, committed=EXCLUDED.committed, on_order=EXCLUDED.on_order,
    available=EXCLUDED.available, updated_at=NOW()`,
		level.ItemCode, level.WarehouseID, level.InStock, level.Committed, level.OnOrder,
		level.Available, level.MinStock, level.MaxStock, level.ReorderPoint, level.Audit.Active)
	return err
}

// UpsertMovement replaces any live entry for the reference, returning the
// signed quantity the replaced entry held (zero when none existed).
func (r *txRepository) UpsertMovement(ctx context.Context, entry MovementEntry) (decimal.Decimal, error) {
	prior, err := r.deleteMovement(ctx, entry.Reference, entry.ItemCode)
	if err != nil {
		return decimal.Zero, err
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO movement_entries (reference, item_code, warehouse_id, kind, quantity, unit_price, posted_at, note)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.Reference, entry.ItemCode, entry.WarehouseID, string(entry.Kind),
		entry.Quantity, entry.UnitPrice, entry.PostedAt, entry.Note)
	if err != nil {
		return decimal.Zero, err
	}
	return prior, nil
}

// RemoveMovement deletes the entry for the reference, returning the signed
// quantity it held. Missing entries return zero: deletes are idempotent.
func (r *txRepository) RemoveMovement(ctx context.Context, reference, itemCode string) (decimal.Decimal, error) {
	return r.deleteMovement(ctx, reference, itemCode)
}

func (r *txRepository) deleteMovement(ctx context.Context, reference, itemCode string) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := r.tx.QueryRow(ctx, `DELETE FROM movement_entries WHERE reference=$1 AND item_code=$2 RETURNING quantity`,
		reference, itemCode).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return qty, nil
}

// LevelFilter narrows the level query surface.
type LevelFilter struct {
	ItemCode    string
	WarehouseID int64
	BelowMin    bool
	AboveMax    bool
	Negative    bool
	Limit       int
}

// MovementFilter narrows the journal query surface.
type MovementFilter struct {
	ItemCode    string
	WarehouseID int64
	Reference   string
	Limit       int
}

// GetLevel reads one level row without locking.
func (r *Repository) GetLevel(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error) {
	var level StockLevel
	err := r.pool.QueryRow(ctx, `SELECT item_code, warehouse_id, in_stock, committed, on_order, available, min_stock, max_stock, reorder_point, created_at, updated_at, active
FROM stock_levels WHERE item_code=$1 AND warehouse_id=$2`, itemCode, warehouseID).
		Scan(&level.ItemCode, &level.WarehouseID, &level.InStock, &level.Committed, &level.OnOrder,
			&level.Available, &level.MinStock, &level.MaxStock, &level.ReorderPoint,
			&level.Audit.CreatedAt, &level.Audit.UpdatedAt, &level.Audit.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, ErrLevelNotFound
		}
		return StockLevel{}, err
	}
	return level, nil
}

// ListLevels queries the ledger with reporting filters.
func (r *Repository) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error) {
	query := `SELECT item_code, warehouse_id, in_stock, committed, on_order, available, min_stock, max_stock, reorder_point, created_at, updated_at, active
FROM stock_levels WHERE active`
	args := []any{}
	argCount := 0

	if filter.ItemCode != "" {
		argCount++
		query += ` AND item_code = $` + strconv.Itoa(argCount)
		args = append(args, filter.ItemCode)
	}
	if filter.WarehouseID != 0 {
		argCount++
		query += ` AND warehouse_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.WarehouseID)
	}
	if filter.BelowMin {
		query += ` AND in_stock < min_stock`
	}
	if filter.AboveMax {
		query += ` AND max_stock > 0 AND in_stock > max_stock`
	}
	if filter.Negative {
		query += ` AND available < 0`
	}

	query += ` ORDER BY item_code ASC, warehouse_id ASC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := []StockLevel{}
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ItemCode, &level.WarehouseID, &level.InStock, &level.Committed, &level.OnOrder,
			&level.Available, &level.MinStock, &level.MaxStock, &level.ReorderPoint,
			&level.Audit.CreatedAt, &level.Audit.UpdatedAt, &level.Audit.Active); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// ListMovements queries the live journal.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]MovementEntry, error) {
	query := `SELECT id, reference, item_code, warehouse_id, kind, quantity, unit_price, posted_at, note
FROM movement_entries WHERE TRUE`
	args := []any{}
	argCount := 0

	if filter.ItemCode != "" {
		argCount++
		query += ` AND item_code = $` + strconv.Itoa(argCount)
		args = append(args, filter.ItemCode)
	}
	if filter.WarehouseID != 0 {
		argCount++
		query += ` AND warehouse_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.WarehouseID)
	}
	if filter.Reference != "" {
		argCount++
		query += ` AND reference LIKE $` + strconv.Itoa(argCount)
		args = append(args, filter.Reference+"%")
	}

	query += ` ORDER BY posted_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []MovementEntry{}
	for rows.Next() {
		var entry MovementEntry
		if err := rows.Scan(&entry.ID, &entry.Reference, &entry.ItemCode, &entry.WarehouseID,
			&entry.Kind, &entry.Quantity, &entry.UnitPrice, &entry.PostedAt, &entry.Note); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
