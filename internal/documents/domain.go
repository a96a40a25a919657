package documents

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/shared"
	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

// Document is the header shared by every stock-moving document type. The
// status machine is per document: Draft -> Open/Posted -> Cancelled/Closed.
type Document struct {
	ID     int64                `json:"id"`
	Type   stock.DocumentType   `json:"type"`
	Number string               `json:"number"`
	Status stock.DocStatus      `json:"status"`
	Note   string               `json:"note"`
	Audit  shared.AuditedFields `json:"audit"`
}

// Line is one item movement on a document. DestWarehouseID is set on
// transfers; MatchedLineID points at the purchase-order line a
// goods-receipt-against-PO line fulfils.
type Line struct {
	ID              int64           `json:"id"`
	DocumentID      int64           `json:"document_id"`
	ItemCode        string          `json:"item_code"`
	WarehouseID     int64           `json:"warehouse_id"`
	DestWarehouseID int64           `json:"dest_warehouse_id,omitempty"`
	MatchedLineID   int64           `json:"matched_line_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Note            string          `json:"note"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	Type   stock.DocumentType
	Status stock.DocStatus
	Limit  int
}

// ErrDocumentNotFound indicates a missing document.
var ErrDocumentNotFound = errors.New("documents: document not found")

// ErrLineNotFound indicates a missing document line.
var ErrLineNotFound = errors.New("documents: line not found")

// ErrInvalidTransition indicates a status change the machine does not allow.
var ErrInvalidTransition = errors.New("documents: invalid status transition")

// ErrDocumentFrozen indicates line edits on a cancelled or closed document.
var ErrDocumentFrozen = errors.New("documents: document no longer editable")

// ErrSameWarehouse indicates a transfer with identical source and destination.
var ErrSameWarehouse = errors.New("documents: source and destination warehouse must differ")

// ErrMatchedLineRequired indicates a GRPO line without a matched PO line.
var ErrMatchedLineRequired = errors.New("documents: matched purchase order line required")
