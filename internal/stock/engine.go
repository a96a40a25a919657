package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/shared"
)

// Tx exposes the ledger and journal operations bound to one database
// transaction. Implementations must hold a row lock on any level returned by
// GetLevelForUpdate until the transaction ends.
type Tx interface {
	GetItem(ctx context.Context, code string) (Item, error)
	GetWarehouse(ctx context.Context, id int64) (Warehouse, error)
	GetLevelForUpdate(ctx context.Context, itemCode string, warehouseID int64) (StockLevel, error)
	UpsertLevel(ctx context.Context, level StockLevel) error
	UpsertMovement(ctx context.Context, entry MovementEntry) (decimal.Decimal, error)
	RemoveMovement(ctx context.Context, reference, itemCode string) (decimal.Decimal, error)
}

// Invalidator is notified after a reconciliation commits so cached level
// queries can be dropped.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Engine derives stock levels from document-line lifecycle events via the
// movement journal. It is called by the document write path inside the same
// transaction as the triggering write; it never opens transactions itself.
type Engine struct {
	logger *slog.Logger
}

// NewEngine builds Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// OnLineCreated reconciles a freshly saved document line.
func (e *Engine) OnLineCreated(ctx context.Context, tx Tx, ev LineEvent) error {
	return e.reconcile(ctx, tx, ev, false)
}

// OnLineUpdated reconciles a re-saved document line. The update is applied as
// a single net delta against the journal, never as reverse-then-reapply.
func (e *Engine) OnLineUpdated(ctx context.Context, tx Tx, ev LineEvent) error {
	return e.reconcile(ctx, tx, ev, false)
}

// OnLineDeleted reverses whatever the journal recorded for the line.
// Removal is idempotent: a line with no journal entry is a no-op.
func (e *Engine) OnLineDeleted(ctx context.Context, tx Tx, ev LineEvent) error {
	return e.reconcile(ctx, tx, ev, true)
}

// OnStatusChanged applies or reverses all of a document's lines when it
// enters or leaves the active state. Entering active is equivalent to
// creating every line; leaving it towards Draft or Cancelled is equivalent
// to deleting every line. Closing keeps the ledger effects.
func (e *Engine) OnStatusChanged(ctx context.Context, tx Tx, docType DocumentType, from, to DocStatus, lines []LineEvent) error {
	adapter, err := AdapterFor(docType)
	if err != nil {
		return err
	}
	switch {
	case !adapter.IsActive(from) && adapter.IsActive(to):
		for _, ev := range lines {
			ev.Status = to
			if err := e.reconcile(ctx, tx, ev, false); err != nil {
				return err
			}
		}
	case adapter.IsActive(from) && !adapter.IsActive(to):
		if to == StatusClosed {
			return nil
		}
		for _, ev := range lines {
			ev.Status = from
			if err := e.reconcile(ctx, tx, ev, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) reconcile(ctx context.Context, tx Tx, ev LineEvent, removal bool) error {
	adapter, err := AdapterFor(ev.DocType)
	if err != nil {
		return err
	}
	if !adapter.IsActive(ev.Status) {
		return nil
	}
	if !removal && ev.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: %s line %d", ErrInvalidQuantity, ev.DocType, ev.LineID)
	}

	item, err := tx.GetItem(ctx, ev.ItemCode)
	if err != nil {
		return fmt.Errorf("reconcile %s line %d: %w", ev.DocType, ev.LineID, err)
	}
	if ev.WarehouseID == 0 {
		ev.WarehouseID = item.DefaultWarehouseID
	}

	now := time.Now().UTC()
	for _, eff := range adapter.Effects {
		warehouseID := eff.warehouse(ev)
		if warehouseID == 0 {
			return fmt.Errorf("%w: %s line %d", ErrUnknownWarehouse, ev.DocType, ev.LineID)
		}
		if _, err := tx.GetWarehouse(ctx, warehouseID); err != nil {
			return fmt.Errorf("reconcile %s line %d: %w", ev.DocType, ev.LineID, err)
		}

		reference := adapter.Reference(ev, eff)
		var delta decimal.Decimal
		if removal {
			prior, err := tx.RemoveMovement(ctx, reference, ev.ItemCode)
			if err != nil {
				return err
			}
			delta = prior.Neg()
		} else {
			signed := ev.Quantity.Mul(decimal.NewFromInt(int64(eff.Sign)))
			prior, err := tx.UpsertMovement(ctx, MovementEntry{
				Reference:   reference,
				ItemCode:    ev.ItemCode,
				WarehouseID: warehouseID,
				Kind:        eff.Kind,
				Quantity:    signed,
				UnitPrice:   ev.UnitPrice,
				PostedAt:    now,
				Note:        ev.Note,
			})
			if err != nil {
				return err
			}
			delta = signed.Sub(prior)
		}
		if delta.IsZero() {
			continue
		}

		level, err := tx.GetLevelForUpdate(ctx, ev.ItemCode, warehouseID)
		if err != nil {
			if !errors.Is(err, ErrLevelNotFound) {
				return err
			}
			level = newLevel(item, warehouseID, now)
		}
		if err := level.Apply(eff.Field, delta); err != nil {
			return err
		}
		level.Audit.Touch(now)
		if err := tx.UpsertLevel(ctx, level); err != nil {
			return err
		}
	}

	if e.logger != nil {
		e.logger.Debug("reconciled line",
			slog.String("doc_type", string(ev.DocType)),
			slog.Int64("doc_id", ev.DocID),
			slog.Int64("line_id", ev.LineID),
			slog.Bool("removal", removal),
		)
	}
	return nil
}

// newLevel creates a zeroed level seeded with the item's thresholds. Levels
// are created lazily on first movement and never deleted automatically.
func newLevel(item Item, warehouseID int64, now time.Time) StockLevel {
	return StockLevel{
		ItemCode:     item.Code,
		WarehouseID:  warehouseID,
		MinStock:     item.MinStock,
		MaxStock:     item.MaxStock,
		ReorderPoint: item.ReorderPoint,
		Audit:        shared.NewAuditedFields(now),
	}
}
