package stock

import "fmt"

// warehouseRole selects which warehouse reference of the event an effect
// targets.
type warehouseRole int

const (
	// roleLine targets the line's own warehouse.
	roleLine warehouseRole = iota
	// roleDest targets the transfer destination warehouse.
	roleDest
	// roleOrder targets the warehouse of the matched purchase-order line.
	roleOrder
)

// Effect declares one ledger mutation a document line produces: which field,
// with which sign, journalled under which kind and reference suffix.
type Effect struct {
	Field  Field
	Sign   int
	Kind   Kind
	Role   warehouseRole
	Suffix string
}

// Adapter is the policy record for one document type. Adapters never touch
// the ledger; the engine interprets them.
type Adapter struct {
	DocType        DocumentType
	Prefix         string
	ActiveStatuses []DocStatus
	Effects        []Effect
}

// IsActive reports whether a document in the given status produces ledger
// effects.
func (a Adapter) IsActive(status DocStatus) bool {
	for _, s := range a.ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PrimaryActive returns the status a document of this type enters when posted.
func (a Adapter) PrimaryActive() DocStatus {
	return a.ActiveStatuses[0]
}

// Reference builds the journal correlation key for an effect. Every key is
// scoped by document and line id; effect suffixes keep multi-effect lines
// from colliding.
func (a Adapter) Reference(ev LineEvent, eff Effect) string {
	return fmt.Sprintf("%s-%d-%d%s", a.Prefix, ev.DocID, ev.LineID, eff.Suffix)
}

func (eff Effect) warehouse(ev LineEvent) int64 {
	switch eff.Role {
	case roleDest:
		return ev.DestWarehouseID
	case roleOrder:
		if ev.OrderWarehouseID != 0 {
			return ev.OrderWarehouseID
		}
		return ev.WarehouseID
	default:
		return ev.WarehouseID
	}
}

var adapters = map[DocumentType]Adapter{
	DocGoodsReceipt: {
		DocType:        DocGoodsReceipt,
		Prefix:         "GR",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: +1, Kind: KindReceipt, Role: roleLine},
		},
	},
	DocGoodsIssue: {
		DocType:        DocGoodsIssue,
		Prefix:         "ISS",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindIssue, Role: roleLine},
		},
	},
	DocSalesDelivery: {
		DocType:        DocSalesDelivery,
		Prefix:         "DEL",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindIssue, Role: roleLine},
			{Field: FieldCommitted, Sign: -1, Kind: KindIssue, Role: roleLine, Suffix: "-CMT"},
		},
	},
	DocSalesReturn: {
		DocType:        DocSalesReturn,
		Prefix:         "RET",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: +1, Kind: KindReturn, Role: roleLine},
		},
	},
	DocInventoryTransfer: {
		DocType:        DocInventoryTransfer,
		Prefix:         "XFER",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindTransferOut, Role: roleLine, Suffix: "-OUT"},
			{Field: FieldInStock, Sign: +1, Kind: KindTransferIn, Role: roleDest, Suffix: "-IN"},
		},
	},
	DocPurchaseOrder: {
		DocType:        DocPurchaseOrder,
		Prefix:         "PO",
		ActiveStatuses: []DocStatus{StatusOpen},
		Effects: []Effect{
			{Field: FieldOnOrder, Sign: +1, Kind: KindOrder, Role: roleLine},
		},
	},
	DocGoodsReceiptPO: {
		DocType:        DocGoodsReceiptPO,
		Prefix:         "GRPO",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: +1, Kind: KindReceipt, Role: roleLine},
			{Field: FieldOnOrder, Sign: -1, Kind: KindOrder, Role: roleOrder, Suffix: "-PO"},
		},
	},
	DocPurchaseReturn: {
		DocType:        DocPurchaseReturn,
		Prefix:         "PGR",
		ActiveStatuses: []DocStatus{StatusPosted},
		Effects: []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindReturn, Role: roleLine},
		},
	},
}

// AdapterFor resolves the adapter for a document type.
func AdapterFor(t DocumentType) (Adapter, error) {
	a, ok := adapters[t]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: %s", ErrUnknownDocumentType, t)
	}
	return a, nil
}

// DocumentTypes lists every type with a registered adapter.
func DocumentTypes() []DocumentType {
	types := make([]DocumentType, 0, len(adapters))
	for t := range adapters {
		types = append(types, t)
	}
	return types
}
