package documents

import (
	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

type lineRequest struct {
	ItemCode        string          `json:"item_code" validate:"required,max=64"`
	WarehouseID     int64           `json:"warehouse_id" validate:"gte=0"`
	DestWarehouseID int64           `json:"dest_warehouse_id" validate:"gte=0"`
	MatchedLineID   int64           `json:"matched_line_id" validate:"gte=0"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Note            string          `json:"note" validate:"max=500"`
}

type createDocumentRequest struct {
	Type   string        `json:"type" validate:"required,oneof=GOODS_RECEIPT GOODS_ISSUE INVENTORY_TRANSFER PURCHASE_ORDER GOODS_RECEIPT_PO PURCHASE_RETURN SALES_DELIVERY SALES_RETURN"`
	Number string        `json:"number" validate:"omitempty,max=40"`
	Note   string        `json:"note" validate:"max=500"`
	Lines  []lineRequest `json:"lines" validate:"dive"`
}

type documentResponse struct {
	Document Document `json:"document"`
	Lines    []Line   `json:"lines,omitempty"`
}

func (r lineRequest) toInput() LineInput {
	return LineInput{
		ItemCode:        r.ItemCode,
		WarehouseID:     r.WarehouseID,
		DestWarehouseID: r.DestWarehouseID,
		MatchedLineID:   r.MatchedLineID,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		Note:            r.Note,
	}
}

func (r createDocumentRequest) toInput() CreateInput {
	input := CreateInput{
		Type:   stock.DocumentType(r.Type),
		Number: r.Number,
		Note:   r.Note,
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, line.toInput())
	}
	return input
}
