package warehouses

import (
	"github.com/nordwind-erp/nordwind-erp/internal/shared"
)

// Warehouse represents a storage location. At most one warehouse is the
// system-wide default.
type Warehouse struct {
	ID        int64                `json:"id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Address   string               `json:"address"`
	IsDefault bool                 `json:"is_default"`
	Audit     shared.AuditedFields `json:"audit"`
}

// ListFilter narrows warehouse listings.
type ListFilter struct {
	Search     string
	OnlyActive bool
	Limit      int
}
