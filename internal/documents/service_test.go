package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

// memoryRepo implements RepositoryPort, TxRepository and stock.Tx against
// maps. WithTx snapshots state and restores it on error so transactional
// behaviour matches the real repository.
type memoryRepo struct {
	docs       map[int64]Document
	lines      map[int64]Line
	items      map[string]stock.Item
	warehouses map[int64]stock.Warehouse
	levels     map[string]stock.StockLevel
	movements  map[string]stock.MovementEntry
	nextDocID  int64
	nextLineID int64

	failTx error
}

func newMemoryRepo() *memoryRepo {
	r := &memoryRepo{
		docs:       make(map[int64]Document),
		lines:      make(map[int64]Line),
		items:      make(map[string]stock.Item),
		warehouses: make(map[int64]stock.Warehouse),
		levels:     make(map[string]stock.StockLevel),
		movements:  make(map[string]stock.MovementEntry),
	}
	r.items["WIDGET"] = stock.Item{Code: "WIDGET", DefaultWarehouseID: 1}
	r.warehouses[1] = stock.Warehouse{ID: 1, Code: "MAIN", IsActive: true, IsDefault: true}
	r.warehouses[2] = stock.Warehouse{ID: 2, Code: "EAST", IsActive: true}
	return r
}

func levelKey(itemCode string, warehouseID int64) string {
	return fmt.Sprintf("%s:%d", itemCode, warehouseID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r.failTx != nil {
		return r.failTx
	}
	docs := cloneMap(r.docs)
	lines := cloneMap(r.lines)
	levels := cloneMap(r.levels)
	movements := cloneMap(r.movements)
	if err := fn(ctx, r); err != nil {
		r.docs, r.lines, r.levels, r.movements = docs, lines, levels, movements
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (r *memoryRepo) GetDocument(ctx context.Context, id int64) (Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memoryRepo) ListDocuments(ctx context.Context, filter ListFilter) ([]Document, error) {
	docs := []Document{}
	for _, doc := range r.docs {
		if filter.Type != "" && doc.Type != filter.Type {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *memoryRepo) ListDocumentLines(ctx context.Context, documentID int64) ([]Line, error) {
	return r.ListLines(ctx, documentID)
}

func (r *memoryRepo) Ledger() stock.Tx {
	return r
}

func (r *memoryRepo) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	r.nextDocID++
	doc.ID = r.nextDocID
	r.docs[doc.ID] = doc
	return doc.ID, nil
}

func (r *memoryRepo) GetDocumentForUpdate(ctx context.Context, id int64) (Document, error) {
	return r.GetDocument(ctx, id)
}

func (r *memoryRepo) UpdateDocumentStatus(ctx context.Context, id int64, status stock.DocStatus) error {
	doc, ok := r.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	doc.Status = status
	r.docs[id] = doc
	return nil
}

func (r *memoryRepo) InsertLine(ctx context.Context, line Line) (int64, error) {
	r.nextLineID++
	line.ID = r.nextLineID
	r.lines[line.ID] = line
	return line.ID, nil
}

func (r *memoryRepo) UpdateLine(ctx context.Context, line Line) error {
	if _, ok := r.lines[line.ID]; !ok {
		return ErrLineNotFound
	}
	r.lines[line.ID] = line
	return nil
}

func (r *memoryRepo) DeleteLine(ctx context.Context, id int64) error {
	if _, ok := r.lines[id]; !ok {
		return ErrLineNotFound
	}
	delete(r.lines, id)
	return nil
}

func (r *memoryRepo) GetLine(ctx context.Context, id int64) (Line, error) {
	line, ok := r.lines[id]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	return line, nil
}

func (r *memoryRepo) ListLines(ctx context.Context, documentID int64) ([]Line, error) {
	lines := []Line{}
	for id := int64(1); id <= r.nextLineID; id++ {
		line, ok := r.lines[id]
		if ok && line.DocumentID == documentID {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (r *memoryRepo) GetItem(ctx context.Context, code string) (stock.Item, error) {
	item, ok := r.items[code]
	if !ok {
		return stock.Item{}, stock.ErrUnknownItem
	}
	return item, nil
}

func (r *memoryRepo) GetWarehouse(ctx context.Context, id int64) (stock.Warehouse, error) {
	wh, ok := r.warehouses[id]
	if !ok {
		return stock.Warehouse{}, stock.ErrUnknownWarehouse
	}
	return wh, nil
}

func (r *memoryRepo) GetLevelForUpdate(ctx context.Context, itemCode string, warehouseID int64) (stock.StockLevel, error) {
	level, ok := r.levels[levelKey(itemCode, warehouseID)]
	if !ok {
		return stock.StockLevel{}, stock.ErrLevelNotFound
	}
	return level, nil
}

func (r *memoryRepo) UpsertLevel(ctx context.Context, level stock.StockLevel) error {
	r.levels[levelKey(level.ItemCode, level.WarehouseID)] = level
	return nil
}

func (r *memoryRepo) UpsertMovement(ctx context.Context, entry stock.MovementEntry) (decimal.Decimal, error) {
	key := entry.Reference + ":" + entry.ItemCode
	prior := decimal.Zero
	if existing, ok := r.movements[key]; ok {
		prior = existing.Quantity
	}
	r.movements[key] = entry
	return prior, nil
}

func (r *memoryRepo) RemoveMovement(ctx context.Context, reference, itemCode string) (decimal.Decimal, error) {
	key := reference + ":" + itemCode
	existing, ok := r.movements[key]
	if !ok {
		return decimal.Zero, nil
	}
	delete(r.movements, key)
	return existing.Quantity, nil
}

func (r *memoryRepo) inStock(itemCode string, warehouseID int64) decimal.Decimal {
	return r.levels[levelKey(itemCode, warehouseID)].InStock
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, stock.NewEngine(nil), nil, nil, 3)
}

func qty(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func receiptInput(quantity int64) CreateInput {
	return CreateInput{
		Type: stock.DocGoodsReceipt,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(quantity)},
		},
	}
}

func TestCreateStaysDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, lines, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	require.Equal(t, stock.StatusDraft, doc.Status)
	require.Len(t, lines, 1)
	require.Contains(t, doc.Number, "GR-")
	require.Empty(t, repo.levels, "drafts never touch the ledger")
	require.Empty(t, repo.movements)
}

func TestPostAppliesLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, stock.StatusPosted, posted.Status)
	require.True(t, repo.inStock("WIDGET", 1).Equal(qty(10)))
	require.Len(t, repo.movements, 1)
}

func TestCancelReversesLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, stock.StatusCancelled, cancelled.Status)
	require.True(t, repo.inStock("WIDGET", 1).IsZero())
	require.Empty(t, repo.movements)
}

func TestCloseKeepsEffectsAndFreezesLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	closed, err := svc.Close(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, stock.StatusClosed, closed.Status)
	require.True(t, repo.inStock("WIDGET", 1).Equal(qty(10)), "closing keeps ledger effects")

	_, err = svc.AddLine(ctx, doc.ID, LineInput{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(1)})
	require.ErrorIs(t, err, ErrDocumentFrozen)
}

func TestReopenReturnsToDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	reopened, err := svc.Reopen(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, stock.StatusDraft, reopened.Status)
	require.True(t, repo.inStock("WIDGET", 1).IsZero())
	require.Empty(t, repo.movements)
}

func TestInvalidTransitionRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Post(ctx, doc.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	_, err = svc.Close(ctx, doc.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddLineOnActiveDocumentReconciles(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.AddLine(ctx, doc.ID, LineInput{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(5)})
	require.NoError(t, err)
	require.True(t, repo.inStock("WIDGET", 1).Equal(qty(15)))
	require.Len(t, repo.movements, 2)
}

func TestUpdateLineAppliesNetDelta(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, lines, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.UpdateLine(ctx, doc.ID, lines[0].ID, LineInput{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(4)})
	require.NoError(t, err)
	require.True(t, repo.inStock("WIDGET", 1).Equal(qty(4)))
	require.Len(t, repo.movements, 1)
}

func TestUpdateLineKeyChangeReapplies(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, lines, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.UpdateLine(ctx, doc.ID, lines[0].ID, LineInput{ItemCode: "WIDGET", WarehouseID: 2, Quantity: qty(10)})
	require.NoError(t, err)
	require.True(t, repo.inStock("WIDGET", 1).IsZero(), "old warehouse effect is reversed")
	require.True(t, repo.inStock("WIDGET", 2).Equal(qty(10)))
	require.Len(t, repo.movements, 1)
}

func TestDeleteLineReversesLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, lines, err := svc.Create(ctx, receiptInput(10))
	require.NoError(t, err)
	_, err = svc.Post(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLine(ctx, doc.ID, lines[0].ID))
	require.True(t, repo.inStock("WIDGET", 1).IsZero())
	require.Empty(t, repo.movements)

	_, err = repo.GetLine(ctx, lines[0].ID)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestGoodsReceiptPOResolvesMatchedLine(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	po, poLines, err := svc.Create(ctx, CreateInput{
		Type: stock.DocPurchaseOrder,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 2, Quantity: qty(10)},
		},
	})
	require.NoError(t, err)
	_, err = svc.Post(ctx, po.ID)
	require.NoError(t, err)
	require.True(t, repo.levels[levelKey("WIDGET", 2)].OnOrder.Equal(qty(10)))

	grpo, _, err := svc.Create(ctx, CreateInput{
		Type: stock.DocGoodsReceiptPO,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 1, MatchedLineID: poLines[0].ID, Quantity: qty(6)},
		},
	})
	require.NoError(t, err)
	_, err = svc.Post(ctx, grpo.ID)
	require.NoError(t, err)

	require.True(t, repo.inStock("WIDGET", 1).Equal(qty(6)))
	require.True(t, repo.levels[levelKey("WIDGET", 2)].OnOrder.Equal(qty(4)),
		"the on-order decrement lands on the matched PO line's warehouse")
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, CreateInput{Type: stock.DocumentType("BOGUS")})
	require.ErrorIs(t, err, stock.ErrUnknownDocumentType)

	_, _, err = svc.Create(ctx, CreateInput{
		Type: stock.DocInventoryTransfer,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 1, DestWarehouseID: 1, Quantity: qty(5)},
		},
	})
	require.ErrorIs(t, err, ErrSameWarehouse)

	_, _, err = svc.Create(ctx, CreateInput{
		Type: stock.DocGoodsReceiptPO,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(5)},
		},
	})
	require.ErrorIs(t, err, ErrMatchedLineRequired)

	_, _, err = svc.Create(ctx, CreateInput{
		Type: stock.DocGoodsReceipt,
		Lines: []LineInput{
			{ItemCode: "WIDGET", WarehouseID: 1, Quantity: qty(0)},
		},
	})
	require.ErrorIs(t, err, stock.ErrInvalidQuantity)
}

func TestPostUnknownItemRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, CreateInput{
		Type: stock.DocGoodsReceipt,
		Lines: []LineInput{
			{ItemCode: "MISSING", WarehouseID: 1, Quantity: qty(5)},
		},
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, doc.ID)
	require.ErrorIs(t, err, stock.ErrUnknownItem)

	got, err := repo.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, stock.StatusDraft, got.Status, "failed posting leaves the document in draft")
	require.Empty(t, repo.levels)
}

func TestSerializationConflictSurfacesAfterRetries(t *testing.T) {
	repo := newMemoryRepo()
	repo.failTx = &pgconn.PgError{Code: "40001"}
	svc := newTestService(repo)

	_, _, err := svc.Create(context.Background(), receiptInput(10))
	require.ErrorIs(t, err, stock.ErrConcurrentModification)
}
