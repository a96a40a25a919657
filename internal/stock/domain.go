package stock

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/shared"
)

// Field names a ledger column on a stock level row.
type Field string

const (
	// FieldInStock is physical quantity on hand.
	FieldInStock Field = "in_stock"
	// FieldCommitted is quantity promised to outbound documents not yet shipped.
	FieldCommitted Field = "committed"
	// FieldOnOrder is quantity on open purchase orders not yet received.
	FieldOnOrder Field = "on_order"
)

// Kind enumerates journal movement kinds.
type Kind string

const (
	KindReceipt     Kind = "RECEIPT"
	KindIssue       Kind = "ISSUE"
	KindTransferIn  Kind = "TRANSFER_IN"
	KindTransferOut Kind = "TRANSFER_OUT"
	KindOrder       Kind = "ORDER"
	KindReturn      Kind = "RETURN"
	KindAdjustment  Kind = "ADJUSTMENT"
)

// DocumentType enumerates the document-line types that can move stock.
type DocumentType string

const (
	DocGoodsReceipt      DocumentType = "GOODS_RECEIPT"
	DocGoodsIssue        DocumentType = "GOODS_ISSUE"
	DocInventoryTransfer DocumentType = "INVENTORY_TRANSFER"
	DocPurchaseOrder     DocumentType = "PURCHASE_ORDER"
	DocGoodsReceiptPO    DocumentType = "GOODS_RECEIPT_PO"
	DocPurchaseReturn    DocumentType = "PURCHASE_RETURN"
	DocSalesDelivery     DocumentType = "SALES_DELIVERY"
	DocSalesReturn       DocumentType = "SALES_RETURN"
)

// DocStatus enumerates document lifecycle states. Only active states
// (Open, Posted) produce ledger effects.
type DocStatus string

const (
	StatusDraft     DocStatus = "DRAFT"
	StatusOpen      DocStatus = "OPEN"
	StatusPosted    DocStatus = "POSTED"
	StatusCancelled DocStatus = "CANCELLED"
	StatusClosed    DocStatus = "CLOSED"
)

// StockLevel is the per-(item, warehouse) quantity row. Available is derived
// and must equal InStock - Committed after every write. Fields are never
// clamped at zero; negative values are surfaced by the reporting filters.
type StockLevel struct {
	ItemCode     string               `json:"item_code"`
	WarehouseID  int64                `json:"warehouse_id"`
	InStock      decimal.Decimal      `json:"in_stock"`
	Committed    decimal.Decimal      `json:"committed"`
	OnOrder      decimal.Decimal      `json:"on_order"`
	Available    decimal.Decimal      `json:"available"`
	MinStock     decimal.Decimal      `json:"min_stock"`
	MaxStock     decimal.Decimal      `json:"max_stock"`
	ReorderPoint decimal.Decimal      `json:"reorder_point"`
	Audit        shared.AuditedFields `json:"audit"`
}

// Apply adds delta to the named field and recomputes Available.
func (l *StockLevel) Apply(field Field, delta decimal.Decimal) error {
	switch field {
	case FieldInStock:
		l.InStock = l.InStock.Add(delta)
	case FieldCommitted:
		l.Committed = l.Committed.Add(delta)
	case FieldOnOrder:
		l.OnOrder = l.OnOrder.Add(delta)
	default:
		return errors.New("stock: unknown ledger field " + string(field))
	}
	l.Available = l.InStock.Sub(l.Committed)
	return nil
}

// MovementEntry is one journal row correlating a source document line to its
// last-applied ledger delta. Quantity is signed; at most one live entry
// exists per (reference, item_code).
type MovementEntry struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	ItemCode    string          `json:"item_code"`
	WarehouseID int64           `json:"warehouse_id"`
	Kind        Kind            `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PostedAt    time.Time       `json:"posted_at"`
	Note        string          `json:"note"`
}

// Item is the read-only master-data view the engine needs: thresholds seed
// lazily created levels, the default warehouse resolves lines without one.
type Item struct {
	Code               string
	DefaultWarehouseID int64
	MinStock           decimal.Decimal
	MaxStock           decimal.Decimal
	ReorderPoint       decimal.Decimal
}

// Warehouse is the read-only master-data view the engine needs.
type Warehouse struct {
	ID        int64
	Code      string
	IsActive  bool
	IsDefault bool
}

// LineEvent describes one document-line lifecycle event as seen by the engine.
type LineEvent struct {
	DocType          DocumentType
	DocID            int64
	LineID           int64
	Status           DocStatus
	ItemCode         string
	WarehouseID      int64
	DestWarehouseID  int64 // transfers: destination
	OrderWarehouseID int64 // GRPO: warehouse of the matched PO line
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	Note             string
}

// ErrUnknownItem indicates the referenced item code has no master record.
var ErrUnknownItem = errors.New("stock: unknown item")

// ErrUnknownWarehouse indicates no resolvable warehouse for the line.
var ErrUnknownWarehouse = errors.New("stock: unknown warehouse")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("stock: quantity must be positive")

// ErrConcurrentModification indicates a lock conflict that survived retries.
var ErrConcurrentModification = errors.New("stock: concurrent modification")

// ErrUnknownDocumentType indicates no adapter is registered for a type.
var ErrUnknownDocumentType = errors.New("stock: unknown document type")
