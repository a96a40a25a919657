package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEveryDocumentTypeHasAnAdapter(t *testing.T) {
	types := []DocumentType{
		DocGoodsReceipt,
		DocGoodsIssue,
		DocInventoryTransfer,
		DocPurchaseOrder,
		DocGoodsReceiptPO,
		DocPurchaseReturn,
		DocSalesDelivery,
		DocSalesReturn,
	}
	require.Len(t, DocumentTypes(), len(types))
	for _, dt := range types {
		adapter, err := AdapterFor(dt)
		require.NoError(t, err)
		require.Equal(t, dt, adapter.DocType)
		require.NotEmpty(t, adapter.Prefix)
		require.NotEmpty(t, adapter.ActiveStatuses)
		require.NotEmpty(t, adapter.Effects)
	}
}

func TestAdapterForUnknownType(t *testing.T) {
	_, err := AdapterFor(DocumentType("BOGUS"))
	require.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestAdapterEffects(t *testing.T) {
	cases := []struct {
		docType DocumentType
		active  DocStatus
		effects []Effect
	}{
		{DocGoodsReceipt, StatusPosted, []Effect{{Field: FieldInStock, Sign: +1, Kind: KindReceipt}}},
		{DocGoodsIssue, StatusPosted, []Effect{{Field: FieldInStock, Sign: -1, Kind: KindIssue}}},
		{DocSalesReturn, StatusPosted, []Effect{{Field: FieldInStock, Sign: +1, Kind: KindReturn}}},
		{DocPurchaseReturn, StatusPosted, []Effect{{Field: FieldInStock, Sign: -1, Kind: KindReturn}}},
		{DocPurchaseOrder, StatusOpen, []Effect{{Field: FieldOnOrder, Sign: +1, Kind: KindOrder}}},
		{DocSalesDelivery, StatusPosted, []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindIssue},
			{Field: FieldCommitted, Sign: -1, Kind: KindIssue, Suffix: "-CMT"},
		}},
		{DocInventoryTransfer, StatusPosted, []Effect{
			{Field: FieldInStock, Sign: -1, Kind: KindTransferOut, Suffix: "-OUT"},
			{Field: FieldInStock, Sign: +1, Kind: KindTransferIn, Role: roleDest, Suffix: "-IN"},
		}},
		{DocGoodsReceiptPO, StatusPosted, []Effect{
			{Field: FieldInStock, Sign: +1, Kind: KindReceipt},
			{Field: FieldOnOrder, Sign: -1, Kind: KindOrder, Role: roleOrder, Suffix: "-PO"},
		}},
	}

	for _, tc := range cases {
		adapter, err := AdapterFor(tc.docType)
		require.NoError(t, err, tc.docType)
		require.Equal(t, tc.active, adapter.PrimaryActive(), tc.docType)
		require.Equal(t, tc.effects, adapter.Effects, tc.docType)
	}
}

func TestReferencesAreUniquePerLineAndEffect(t *testing.T) {
	ev := LineEvent{DocID: 12, LineID: 3}
	seen := map[string]bool{}
	for _, dt := range DocumentTypes() {
		adapter, err := AdapterFor(dt)
		require.NoError(t, err)
		for _, eff := range adapter.Effects {
			ref := adapter.Reference(ev, eff)
			require.False(t, seen[ref], "duplicate reference %s", ref)
			seen[ref] = true
		}
	}

	adapter, err := AdapterFor(DocGoodsReceipt)
	require.NoError(t, err)
	other := adapter.Reference(LineEvent{DocID: 12, LineID: 4}, adapter.Effects[0])
	require.NotEqual(t, adapter.Reference(ev, adapter.Effects[0]), other)
	require.Equal(t, "GR-12-3", adapter.Reference(ev, adapter.Effects[0]))
}

func TestEffectWarehouseResolution(t *testing.T) {
	ev := LineEvent{WarehouseID: 1, DestWarehouseID: 2, OrderWarehouseID: 3}

	require.Equal(t, int64(1), Effect{Role: roleLine}.warehouse(ev))
	require.Equal(t, int64(2), Effect{Role: roleDest}.warehouse(ev))
	require.Equal(t, int64(3), Effect{Role: roleOrder}.warehouse(ev))

	ev.OrderWarehouseID = 0
	require.Equal(t, int64(1), Effect{Role: roleOrder}.warehouse(ev), "order effects fall back to the line warehouse")
}

func TestApplyRecomputesAvailable(t *testing.T) {
	level := StockLevel{}
	require.NoError(t, level.Apply(FieldInStock, decimal.NewFromInt(10)))
	require.NoError(t, level.Apply(FieldCommitted, decimal.NewFromInt(4)))
	require.True(t, level.Available.Equal(decimal.NewFromInt(6)))

	require.NoError(t, level.Apply(FieldOnOrder, decimal.NewFromInt(3)))
	require.True(t, level.Available.Equal(decimal.NewFromInt(6)), "on-order does not affect availability")

	require.Error(t, level.Apply(Field("bogus"), decimal.NewFromInt(1)))
}
