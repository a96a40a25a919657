package items

import (
	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/shared"
)

// Item represents a master-data SKU record. The stock thresholds seed lazily
// created stock levels; the engine reads items but never writes them.
type Item struct {
	ID                 int64                `json:"id"`
	Code               string               `json:"code"`
	Name               string               `json:"name"`
	DefaultWarehouseID int64                `json:"default_warehouse_id,omitempty"`
	MinStock           decimal.Decimal      `json:"min_stock"`
	MaxStock           decimal.Decimal      `json:"max_stock"`
	ReorderPoint       decimal.Decimal      `json:"reorder_point"`
	Audit              shared.AuditedFields `json:"audit"`
}

// ListFilter narrows item listings.
type ListFilter struct {
	Search string
	Limit  int
}
