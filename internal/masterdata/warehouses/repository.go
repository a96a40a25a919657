package warehouses

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/db"
)

// ErrWarehouseNotFound indicates a missing warehouse.
var ErrWarehouseNotFound = errors.New("warehouses: warehouse not found")

// ErrDuplicateCode indicates a code collision.
var ErrDuplicateCode = errors.New("warehouses: code already in use")

// Repository persists warehouses in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Warehouse, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const warehouseColumns = `id, code, name, address, is_default, created_at, updated_at, active`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE TRUE`
	args := []any{}
	argCount := 0

	if filter.OnlyActive {
		query += ` AND active`
	}
	if filter.Search != "" {
		argCount++
		query += ` AND (code ILIKE $` + strconv.Itoa(argCount) + ` OR name ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filter.Search+"%")
	}

	query += ` ORDER BY code ASC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := []Warehouse{}
	for rows.Next() {
		wh, err := scanWarehouse(rows)
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id=$1`, id)
	wh, err := scanWarehouse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, ErrWarehouseNotFound
		}
		return Warehouse{}, err
	}
	return wh, nil
}

// Create inserts a warehouse. Claiming the default clears any previous
// default inside the same transaction, keeping at most one system-wide.
func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if warehouse.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE warehouses SET is_default=FALSE, updated_at=NOW() WHERE is_default`); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `INSERT INTO warehouses (code, name, address, is_default, created_at, updated_at, active)
VALUES ($1,$2,$3,$4,NOW(),NOW(),TRUE)
RETURNING id, created_at, updated_at, active`,
			warehouse.Code, warehouse.Name, warehouse.Address, warehouse.IsDefault).
			Scan(&warehouse.ID, &warehouse.Audit.CreatedAt, &warehouse.Audit.UpdatedAt, &warehouse.Audit.Active)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Warehouse{}, ErrDuplicateCode
		}
		return Warehouse{}, err
	}
	return warehouse, nil
}

func (r *repository) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if warehouse.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE warehouses SET is_default=FALSE, updated_at=NOW() WHERE is_default AND id <> $1`, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `UPDATE warehouses
SET code=$2, name=$3, address=$4, is_default=$5, updated_at=NOW()
WHERE id=$1`,
			id, warehouse.Code, warehouse.Name, warehouse.Address, warehouse.IsDefault)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrWarehouseNotFound
		}
		return nil
	})
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE warehouses SET active=FALSE, is_default=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWarehouseNotFound
	}
	return nil
}

func scanWarehouse(row pgx.Row) (Warehouse, error) {
	var wh Warehouse
	err := row.Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.IsDefault,
		&wh.Audit.CreatedAt, &wh.Audit.UpdatedAt, &wh.Audit.Active)
	return wh, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
