package items

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrItemNotFound indicates a missing item.
var ErrItemNotFound = errors.New("items: item not found")

// ErrDuplicateCode indicates a code collision.
var ErrDuplicateCode = errors.New("items: code already in use")

// Repository persists items in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	GetByCode(ctx context.Context, code string) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id int64, item Item) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, code, name, COALESCE(default_warehouse_id, 0), min_stock, max_stock, reorder_point, created_at, updated_at, active`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE active`
	args := []any{}
	argCount := 0

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

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE code=$1`, code)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO items (code, name, default_warehouse_id, min_stock, max_stock, reorder_point, created_at, updated_at, active)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW(),TRUE)
RETURNING id, created_at, updated_at, active`,
		item.Code, item.Name, nullInt(item.DefaultWarehouseID),
		item.MinStock, item.MaxStock, item.ReorderPoint).
		Scan(&item.ID, &item.Audit.CreatedAt, &item.Audit.UpdatedAt, &item.Audit.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return Item{}, ErrDuplicateCode
		}
		return Item{}, err
	}
	return item, nil
}

func (r *repository) Update(ctx context.Context, id int64, item Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE items
SET code=$2, name=$3, default_warehouse_id=$4, min_stock=$5, max_stock=$6, reorder_point=$7, updated_at=NOW()
WHERE id=$1`,
		id, item.Code, item.Name, nullInt(item.DefaultWarehouseID),
		item.MinStock, item.MaxStock, item.ReorderPoint)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE items SET active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Code, &item.Name, &item.DefaultWarehouseID,
		&item.MinStock, &item.MaxStock, &item.ReorderPoint,
		&item.Audit.CreatedAt, &item.Audit.UpdatedAt, &item.Audit.Active)
	return item, err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
