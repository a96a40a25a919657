package documents

import (
	"fmt"
	"strings"

	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

func validateLine(docType stock.DocumentType, line Line) error {
	if strings.TrimSpace(line.ItemCode) == "" {
		return fmt.Errorf("%w: item code required", stock.ErrUnknownItem)
	}
	if line.Quantity.Sign() <= 0 {
		return stock.ErrInvalidQuantity
	}
	switch docType {
	case stock.DocInventoryTransfer:
		if line.DestWarehouseID == 0 {
			return stock.ErrUnknownWarehouse
		}
		if line.WarehouseID != 0 && line.DestWarehouseID == line.WarehouseID {
			return ErrSameWarehouse
		}
	case stock.DocGoodsReceiptPO:
		if line.MatchedLineID == 0 {
			return ErrMatchedLineRequired
		}
	}
	return nil
}

// validTransition encodes the document state machine. Posting moves a draft
// into the adapter's active status; active documents may be cancelled,
// closed, or reopened to draft; drafts may be cancelled outright.
func validTransition(adapter stock.Adapter, from, to stock.DocStatus) bool {
	switch {
	case from == stock.StatusDraft && to == adapter.PrimaryActive():
		return true
	case from == stock.StatusDraft && to == stock.StatusCancelled:
		return true
	case adapter.IsActive(from) && (to == stock.StatusCancelled || to == stock.StatusClosed || to == stock.StatusDraft):
		return true
	}
	return false
}
