package documents

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

// Repository persists documents and lines in PostgreSQL.
type Repository struct {
	pool      *pgxpool.Pool
	stockRepo *stock.Repository
}

// NewRepository constructs Repository. The stock repository is used to bind
// ledger operations to the same transaction as the document writes.
func NewRepository(pool *pgxpool.Pool, stockRepo *stock.Repository) *Repository {
	return &Repository{pool: pool, stockRepo: stockRepo}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	GetDocumentForUpdate(ctx context.Context, id int64) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id int64, status stock.DocStatus) error
	InsertLine(ctx context.Context, line Line) (int64, error)
	UpdateLine(ctx context.Context, line Line) error
	DeleteLine(ctx context.Context, id int64) error
	GetLine(ctx context.Context, id int64) (Line, error)
	ListLines(ctx context.Context, documentID int64) ([]Line, error)
	Ledger() stock.Tx
}

type txRepository struct {
	tx        pgx.Tx
	stockRepo *stock.Repository
}

// WithTx executes the callback inside a repeatable-read transaction. The
// document write and its reconciliation commit or roll back together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("documents repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, stockRepo: r.stockRepo}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetDocument reads one document without locking.
func (r *Repository) GetDocument(ctx context.Context, id int64) (Document, error) {
	var doc Document
	err := r.pool.QueryRow(ctx, `SELECT id, doc_type, number, status, note, created_at, updated_at, active
FROM documents WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Type, &doc.Number, &doc.Status, &doc.Note,
			&doc.Audit.CreatedAt, &doc.Audit.UpdatedAt, &doc.Audit.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListDocuments lists documents with optional type/status filters.
func (r *Repository) ListDocuments(ctx context.Context, filter ListFilter) ([]Document, error) {
	query := `SELECT id, doc_type, number, status, note, created_at, updated_at, active
FROM documents WHERE active`
	args := []any{}
	argCount := 0

	if filter.Type != "" {
		argCount++
		query += ` AND doc_type = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Status))
	}

	query += ` ORDER BY id DESC`
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

	docs := []Document{}
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Type, &doc.Number, &doc.Status, &doc.Note,
			&doc.Audit.CreatedAt, &doc.Audit.UpdatedAt, &doc.Audit.Active); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListDocumentLines lists lines without a transaction, for read endpoints.
func (r *Repository) ListDocumentLines(ctx context.Context, documentID int64) ([]Line, error) {
	return scanLines(ctx, r.pool, documentID)
}

func (r *txRepository) Ledger() stock.Tx {
	return r.stockRepo.Bind(r.tx)
}

func (r *txRepository) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO documents (doc_type, number, status, note, created_at, updated_at, active)
VALUES ($1,$2,$3,$4,NOW(),NOW(),TRUE) RETURNING id`,
		string(doc.Type), doc.Number, string(doc.Status), doc.Note).Scan(&id)
	return id, err
}

func (r *txRepository) GetDocumentForUpdate(ctx context.Context, id int64) (Document, error) {
	var doc Document
	err := r.tx.QueryRow(ctx, `SELECT id, doc_type, number, status, note, created_at, updated_at, active
FROM documents WHERE id=$1 FOR UPDATE`, id).
		Scan(&doc.ID, &doc.Type, &doc.Number, &doc.Status, &doc.Note,
			&doc.Audit.CreatedAt, &doc.Audit.UpdatedAt, &doc.Audit.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *txRepository) UpdateDocumentStatus(ctx context.Context, id int64, status stock.DocStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE documents SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO document_lines (document_id, item_code, warehouse_id, dest_warehouse_id, matched_line_id, quantity, unit_price, note)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		line.DocumentID, line.ItemCode, nullInt(line.WarehouseID), nullInt(line.DestWarehouseID),
		nullInt(line.MatchedLineID), line.Quantity, line.UnitPrice, line.Note).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateLine(ctx context.Context, line Line) error {
	tag, err := r.tx.Exec(ctx, `UPDATE document_lines
SET item_code=$2, warehouse_id=$3, dest_warehouse_id=$4, matched_line_id=$5, quantity=$6, unit_price=$7, note=$8
WHERE id=$1`,
		line.ID, line.ItemCode, nullInt(line.WarehouseID), nullInt(line.DestWarehouseID),
		nullInt(line.MatchedLineID), line.Quantity, line.UnitPrice, line.Note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *txRepository) DeleteLine(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM document_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *txRepository) GetLine(ctx context.Context, id int64) (Line, error) {
	var line Line
	err := r.tx.QueryRow(ctx, `SELECT id, document_id, item_code, COALESCE(warehouse_id,0), COALESCE(dest_warehouse_id,0), COALESCE(matched_line_id,0), quantity, unit_price, note
FROM document_lines WHERE id=$1`, id).
		Scan(&line.ID, &line.DocumentID, &line.ItemCode, &line.WarehouseID, &line.DestWarehouseID,
			&line.MatchedLineID, &line.Quantity, &line.UnitPrice, &line.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrLineNotFound
		}
		return Line{}, err
	}
	return line, nil
}

func (r *txRepository) ListLines(ctx context.Context, documentID int64) ([]Line, error) {
	return scanLines(ctx, r.tx, documentID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanLines(ctx context.Context, q querier, documentID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, document_id, item_code, COALESCE(warehouse_id,0), COALESCE(dest_warehouse_id,0), COALESCE(matched_line_id,0), quantity, unit_price, note
FROM document_lines WHERE document_id=$1 ORDER BY id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.DocumentID, &line.ItemCode, &line.WarehouseID, &line.DestWarehouseID,
			&line.MatchedLineID, &line.Quantity, &line.UnitPrice, &line.Note); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
