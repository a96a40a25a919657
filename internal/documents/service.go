package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/db"
	"github.com/nordwind-erp/nordwind-erp/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDocument(ctx context.Context, id int64) (Document, error)
	ListDocuments(ctx context.Context, filter ListFilter) ([]Document, error)
	ListDocumentLines(ctx context.Context, documentID int64) ([]Line, error)
}

// LedgerPort abstracts the reconciliation engine. Every call runs on the
// stock.Tx bound to the same transaction as the document write.
type LedgerPort interface {
	OnLineCreated(ctx context.Context, tx stock.Tx, ev stock.LineEvent) error
	OnLineUpdated(ctx context.Context, tx stock.Tx, ev stock.LineEvent) error
	OnLineDeleted(ctx context.Context, tx stock.Tx, ev stock.LineEvent) error
	OnStatusChanged(ctx context.Context, tx stock.Tx, docType stock.DocumentType, from, to stock.DocStatus, lines []stock.LineEvent) error
}

// Service coordinates document lifecycles and their ledger effects.
type Service struct {
	repo        RepositoryPort
	ledger      LedgerPort
	invalidator stock.Invalidator
	logger      *slog.Logger
	retries     int
}

// NewService builds Service. invalidator may be nil; retries bounds how often
// a transaction is restarted after a serialization conflict.
func NewService(repo RepositoryPort, ledger LedgerPort, invalidator stock.Invalidator, logger *slog.Logger, retries int) *Service {
	return &Service{repo: repo, ledger: ledger, invalidator: invalidator, logger: logger, retries: retries}
}

// LineInput carries the caller-supplied fields of a document line.
type LineInput struct {
	ItemCode        string
	WarehouseID     int64
	DestWarehouseID int64
	MatchedLineID   int64
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Note            string
}

// CreateInput describes a new document. Documents are always created in
// Draft; posting is a separate, explicit transition.
type CreateInput struct {
	Type   stock.DocumentType
	Number string
	Note   string
	Lines  []LineInput
}

// Create persists a draft document with its lines. Drafts never touch the
// ledger.
func (s *Service) Create(ctx context.Context, input CreateInput) (Document, []Line, error) {
	adapter, err := stock.AdapterFor(input.Type)
	if err != nil {
		return Document{}, nil, err
	}

	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = fmt.Sprintf("%s-%s", adapter.Prefix, strings.ToUpper(uuid.NewString()[:8]))
	}

	doc := Document{Type: input.Type, Number: number, Status: stock.StatusDraft, Note: input.Note}
	lines := make([]Line, 0, len(input.Lines))
	for _, in := range input.Lines {
		line := lineFromInput(in)
		if err := validateLine(input.Type, line); err != nil {
			return Document{}, nil, err
		}
		lines = append(lines, line)
	}

	err = s.inTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertDocument(ctx, doc)
		if err != nil {
			return err
		}
		doc.ID = id
		for i := range lines {
			lines[i].DocumentID = id
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

// Post moves a draft into the adapter's active status and applies every line
// to the ledger within the same transaction.
func (s *Service) Post(ctx context.Context, id int64) (Document, error) {
	return s.transition(ctx, id, func(adapter stock.Adapter) stock.DocStatus {
		return adapter.PrimaryActive()
	})
}

// Cancel moves a document to Cancelled. Leaving the active state reverses
// all of its live journal entries.
func (s *Service) Cancel(ctx context.Context, id int64) (Document, error) {
	return s.transition(ctx, id, func(stock.Adapter) stock.DocStatus {
		return stock.StatusCancelled
	})
}

// Reopen moves an active document back to Draft, reversing its ledger
// effects.
func (s *Service) Reopen(ctx context.Context, id int64) (Document, error) {
	return s.transition(ctx, id, func(stock.Adapter) stock.DocStatus {
		return stock.StatusDraft
	})
}

// Close finalises an active document. Ledger effects are kept; further line
// edits are rejected.
func (s *Service) Close(ctx context.Context, id int64) (Document, error) {
	return s.transition(ctx, id, func(stock.Adapter) stock.DocStatus {
		return stock.StatusClosed
	})
}

func (s *Service) transition(ctx context.Context, id int64, target func(stock.Adapter) stock.DocStatus) (Document, error) {
	var doc Document
	err := s.inTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		doc, err = tx.GetDocumentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		adapter, err := stock.AdapterFor(doc.Type)
		if err != nil {
			return err
		}
		to := target(adapter)
		if !validTransition(adapter, doc.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, to)
		}

		lines, err := tx.ListLines(ctx, doc.ID)
		if err != nil {
			return err
		}
		events := make([]stock.LineEvent, 0, len(lines))
		for _, line := range lines {
			if err := validateLine(doc.Type, line); err != nil {
				return err
			}
			ev, err := s.eventForLine(ctx, tx, doc, line)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}

		if err := tx.UpdateDocumentStatus(ctx, doc.ID, to); err != nil {
			return err
		}
		if err := s.ledger.OnStatusChanged(ctx, tx.Ledger(), doc.Type, doc.Status, to, events); err != nil {
			return err
		}
		doc.Status = to
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	s.bumpCache(ctx)
	return doc, nil
}

// AddLine appends a line to a document. On active documents the line is
// reconciled immediately, inside the same transaction as the insert.
func (s *Service) AddLine(ctx context.Context, documentID int64, input LineInput) (Line, error) {
	line := lineFromInput(input)
	err := s.inTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := s.editableDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		if err := validateLine(doc.Type, line); err != nil {
			return err
		}
		line.DocumentID = documentID
		id, err := tx.InsertLine(ctx, line)
		if err != nil {
			return err
		}
		line.ID = id

		ev, err := s.eventForLine(ctx, tx, doc, line)
		if err != nil {
			return err
		}
		return s.ledger.OnLineCreated(ctx, tx.Ledger(), ev)
	})
	if err != nil {
		return Line{}, err
	}
	s.bumpCache(ctx)
	return line, nil
}

// UpdateLine re-saves a line. Quantity changes are reconciled as one net
// delta; key changes (item or warehouse) reverse the old journal entries and
// apply fresh ones, since the old entries no longer correlate.
func (s *Service) UpdateLine(ctx context.Context, documentID, lineID int64, input LineInput) (Line, error) {
	var updated Line
	err := s.inTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := s.editableDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		prior, err := tx.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if prior.DocumentID != documentID {
			return ErrLineNotFound
		}

		updated = lineFromInput(input)
		updated.ID = lineID
		updated.DocumentID = documentID
		if err := validateLine(doc.Type, updated); err != nil {
			return err
		}
		if err := tx.UpdateLine(ctx, updated); err != nil {
			return err
		}

		keyChanged := prior.ItemCode != updated.ItemCode ||
			prior.WarehouseID != updated.WarehouseID ||
			prior.DestWarehouseID != updated.DestWarehouseID ||
			prior.MatchedLineID != updated.MatchedLineID
		if keyChanged {
			priorEv, err := s.eventForLine(ctx, tx, doc, prior)
			if err != nil {
				return err
			}
			if err := s.ledger.OnLineDeleted(ctx, tx.Ledger(), priorEv); err != nil {
				return err
			}
			ev, err := s.eventForLine(ctx, tx, doc, updated)
			if err != nil {
				return err
			}
			return s.ledger.OnLineCreated(ctx, tx.Ledger(), ev)
		}

		ev, err := s.eventForLine(ctx, tx, doc, updated)
		if err != nil {
			return err
		}
		return s.ledger.OnLineUpdated(ctx, tx.Ledger(), ev)
	})
	if err != nil {
		return Line{}, err
	}
	s.bumpCache(ctx)
	return updated, nil
}

// DeleteLine removes a line and reverses its journal entries.
func (s *Service) DeleteLine(ctx context.Context, documentID, lineID int64) error {
	err := s.inTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := s.editableDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		line, err := tx.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.DocumentID != documentID {
			return ErrLineNotFound
		}

		ev, err := s.eventForLine(ctx, tx, doc, line)
		if err != nil {
			return err
		}
		if err := s.ledger.OnLineDeleted(ctx, tx.Ledger(), ev); err != nil {
			return err
		}
		return tx.DeleteLine(ctx, lineID)
	})
	if err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Document, []Line, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	lines, err := s.repo.ListDocumentLines(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, lines, nil
}

// List returns documents matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}

func (s *Service) editableDocument(ctx context.Context, tx TxRepository, id int64) (Document, error) {
	doc, err := tx.GetDocumentForUpdate(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Status == stock.StatusCancelled || doc.Status == stock.StatusClosed {
		return Document{}, ErrDocumentFrozen
	}
	return doc, nil
}

// eventForLine builds the engine event. GRPO lines resolve the warehouse of
// the matched purchase-order line so the on-order decrement lands where the
// order was counted.
func (s *Service) eventForLine(ctx context.Context, tx TxRepository, doc Document, line Line) (stock.LineEvent, error) {
	ev := stock.LineEvent{
		DocType:         doc.Type,
		DocID:           doc.ID,
		LineID:          line.ID,
		Status:          doc.Status,
		ItemCode:        line.ItemCode,
		WarehouseID:     line.WarehouseID,
		DestWarehouseID: line.DestWarehouseID,
		Quantity:        line.Quantity,
		UnitPrice:       line.UnitPrice,
		Note:            line.Note,
	}
	if doc.Type == stock.DocGoodsReceiptPO && line.MatchedLineID != 0 {
		poLine, err := tx.GetLine(ctx, line.MatchedLineID)
		if err != nil {
			return stock.LineEvent{}, fmt.Errorf("resolve matched PO line %d: %w", line.MatchedLineID, err)
		}
		ev.OrderWarehouseID = poLine.WarehouseID
	}
	return ev, nil
}

// inTx restarts the transaction on serialization conflicts, bounded by the
// configured retry count, then surfaces the conflict.
func (s *Service) inTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	attempts := s.retries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil || !db.IsSerializationFailure(err) {
			return err
		}
		if s.logger != nil {
			s.logger.Warn("retrying document transaction", slog.Int("attempt", i+1), slog.Any("error", err))
		}
	}
	return fmt.Errorf("%w: %v", stock.ErrConcurrentModification, err)
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil && s.logger != nil {
		s.logger.Warn("invalidate stock cache", slog.Any("error", err))
	}
}

func lineFromInput(in LineInput) Line {
	return Line{
		ItemCode:        strings.TrimSpace(in.ItemCode),
		WarehouseID:     in.WarehouseID,
		DestWarehouseID: in.DestWarehouseID,
		MatchedLineID:   in.MatchedLineID,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		Note:            in.Note,
	}
}
