package lineitem

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/analytics"
	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
	"github.com/fraszczakszymon/dfp-query-tool/internal/targeting"
)

// Operation kinds recorded to the journal and analytics sink.
const (
	OpCreate          = "create"
	OpTargetingAdd    = "targeting_add"
	OpTargetingRemove = "targeting_remove"
)

// Gateway is the remote line-item boundary. The production implementation
// talks to the ad platform's REST API; tests substitute fakes.
type Gateway interface {
	// CreateLineItem creates the line item and returns it with the
	// platform-assigned ID filled in.
	CreateLineItem(ctx context.Context, li *models.LineItem) (*models.LineItem, error)
	// LineItemsByOrder lists non-archived line items of an order, ascending
	// by ID, capped at 1000.
	LineItemsByOrder(ctx context.Context, orderID int64) ([]models.LineItem, error)
	// LineItemByID fetches one line item or fails with models.ErrNotFound.
	LineItemByID(ctx context.Context, id int64) (*models.LineItem, error)
	// UpdateLineItem replaces the full line item document.
	UpdateLineItem(ctx context.Context, li *models.LineItem) error
}

// Journal records every operation for audit. Failures to journal never fail
// the operation itself.
type Journal interface {
	RecordOperation(ctx context.Context, rec JournalRecord) error
}

// JournalRecord is one audited operation.
type JournalRecord struct {
	OpID       string
	Kind       string
	OrderID    int64
	LineItemID int64
	KeyID      int64
	ValueIDs   []int64
	Changed    bool
	Outcome    string
	Detail     string
}

// Service orchestrates line-item operations: assemble-and-create, and the
// fetch/edit/update cycle for targeting mutations. Every mutation is a
// strict read-modify-write; the platform offers no version token, so two
// concurrent writers race with last-writer-wins. That limitation is the
// platform's, not something this layer can fix.
type Service struct {
	gateway   Gateway
	assembler *Assembler
	journal   Journal
	analytics analytics.Service
	metrics   observability.MetricsRegistry
	logger    *zap.Logger
}

// NewService wires a Service. journal and analytics may be nil.
func NewService(gateway Gateway, assembler *Assembler, journal Journal, an analytics.Service, metrics observability.MetricsRegistry, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:   gateway,
		assembler: assembler,
		journal:   journal,
		analytics: an,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create assembles a line item from the form and creates it remotely.
func (s *Service) Create(ctx context.Context, form Form) (models.CreateResult, error) {
	li, err := s.assembler.Assemble(ctx, form)
	if err != nil {
		s.metrics.IncrementOperation(OpCreate, "invalid")
		return models.CreateResult{}, err
	}

	created, err := s.gateway.CreateLineItem(ctx, li)
	if err != nil {
		s.metrics.IncrementOperation(OpCreate, "error")
		s.record(ctx, JournalRecord{Kind: OpCreate, OrderID: li.OrderID, Outcome: "error", Detail: err.Error()})
		return models.CreateResult{}, err
	}

	s.metrics.IncrementOperation(OpCreate, "ok")
	s.record(ctx, JournalRecord{Kind: OpCreate, OrderID: created.OrderID, LineItemID: created.ID, Outcome: "ok"})
	s.logger.Info("line item created",
		zap.Int64("line_item_id", created.ID),
		zap.Int64("order_id", created.OrderID),
		zap.String("name", created.Name))

	return models.CreateResult{ID: created.ID, Name: created.Name, OrderID: created.OrderID}, nil
}

// AddTargeting adds a key/value pair to every targeting group of the line
// item. The remote update is pushed only when the tree actually changed; an
// add that is already fully present costs one read and no write.
func (s *Service) AddTargeting(ctx context.Context, lineItemID, keyID int64, valueIDs []int64) (bool, error) {
	if len(valueIDs) == 0 {
		return false, &models.ValidationError{Field: "valueIds", Reason: "must not be empty"}
	}

	li, err := s.gateway.LineItemByID(ctx, lineItemID)
	if err != nil {
		s.metrics.IncrementOperation(OpTargetingAdd, "error")
		return false, err
	}
	if li.Targeting == nil {
		// Pairs can only join groups established at creation time; there is
		// no sensible group to invent for an untargeted line item.
		s.metrics.IncrementOperation(OpTargetingAdd, "invalid")
		return false, &models.ValidationError{Field: "targeting", Reason: "line item has no custom targeting configured"}
	}

	changed := targeting.AddPair(li.Targeting, keyID, valueIDs)
	if changed {
		forceWritable(li)
		if err := s.gateway.UpdateLineItem(ctx, li); err != nil {
			s.metrics.IncrementOperation(OpTargetingAdd, "error")
			s.record(ctx, JournalRecord{Kind: OpTargetingAdd, LineItemID: lineItemID, KeyID: keyID, ValueIDs: valueIDs, Outcome: "error", Detail: err.Error()})
			return false, err
		}
	}

	s.metrics.IncrementOperation(OpTargetingAdd, "ok")
	s.record(ctx, JournalRecord{Kind: OpTargetingAdd, LineItemID: lineItemID, OrderID: li.OrderID, KeyID: keyID, ValueIDs: valueIDs, Changed: changed, Outcome: "ok"})
	s.logger.Info("targeting pair added",
		zap.Int64("line_item_id", lineItemID),
		zap.Int64("key_id", keyID),
		zap.Bool("changed", changed))
	return changed, nil
}

// RemoveTargeting removes a key/value pair from every targeting group,
// pruning criteria and groups that empty out. The update is pushed
// unconditionally: the caller asked for the pair to be gone, and the write
// confirms it.
func (s *Service) RemoveTargeting(ctx context.Context, lineItemID, keyID int64, valueIDs []int64) error {
	if len(valueIDs) == 0 {
		return &models.ValidationError{Field: "valueIds", Reason: "must not be empty"}
	}

	li, err := s.gateway.LineItemByID(ctx, lineItemID)
	if err != nil {
		s.metrics.IncrementOperation(OpTargetingRemove, "error")
		return err
	}

	changed := targeting.RemovePair(li.Targeting, keyID, valueIDs)
	forceWritable(li)
	if err := s.gateway.UpdateLineItem(ctx, li); err != nil {
		s.metrics.IncrementOperation(OpTargetingRemove, "error")
		s.record(ctx, JournalRecord{Kind: OpTargetingRemove, LineItemID: lineItemID, KeyID: keyID, ValueIDs: valueIDs, Outcome: "error", Detail: err.Error()})
		return err
	}

	s.metrics.IncrementOperation(OpTargetingRemove, "ok")
	s.record(ctx, JournalRecord{Kind: OpTargetingRemove, LineItemID: lineItemID, OrderID: li.OrderID, KeyID: keyID, ValueIDs: valueIDs, Changed: changed, Outcome: "ok"})
	s.logger.Info("targeting pair removed",
		zap.Int64("line_item_id", lineItemID),
		zap.Int64("key_id", keyID),
		zap.Bool("changed", changed))
	return nil
}

// LineItemsByOrder lists the order's non-archived line items.
func (s *Service) LineItemsByOrder(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	return s.gateway.LineItemsByOrder(ctx, orderID)
}

// LineItemByID fetches a single line item.
func (s *Service) LineItemByID(ctx context.Context, id int64) (*models.LineItem, error) {
	return s.gateway.LineItemByID(ctx, id)
}

// forceWritable sets the override flags that stop the platform from
// rejecting a targeting update over inventory availability recalculation.
func forceWritable(li *models.LineItem) {
	li.AllowOverbook = true
	li.SkipInventoryCheck = true
}

// record writes the operation to the journal and analytics sink,
// best-effort.
func (s *Service) record(ctx context.Context, rec JournalRecord) {
	rec.OpID = uuid.NewString()
	if s.journal != nil {
		if err := s.journal.RecordOperation(ctx, rec); err != nil {
			s.metrics.IncrementJournalErrors()
			s.logger.Warn("journal write failed", zap.String("op", rec.Kind), zap.Error(err))
		}
	}
	if s.analytics != nil {
		ev := analytics.OperationEvent{
			OpID:       rec.OpID,
			Kind:       rec.Kind,
			OrderID:    rec.OrderID,
			LineItemID: rec.LineItemID,
			KeyID:      rec.KeyID,
			ValueCount: len(rec.ValueIDs),
			Changed:    rec.Changed,
			Outcome:    rec.Outcome,
		}
		if err := s.analytics.RecordOperation(ctx, ev); err != nil && err != analytics.ErrUnavailable {
			s.logger.Warn("analytics write failed", zap.String("op", rec.Kind), zap.Error(err))
		}
	}
}
