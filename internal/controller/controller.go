// Package controller implements the turn-driven state machine for bulk
// operations. Each operation is one synchronous call bound to one
// conversational turn; nothing here loops across batches or retains state
// between calls.
package controller

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temmy762/jarvis/internal/domain"
	"github.com/temmy762/jarvis/internal/limits"
)

var (
	batchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_batches_processed_total",
			Help: "Total number of batches executed, by domain and action",
		},
		[]string{"domain", "action"},
	)

	itemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_items_processed_total",
			Help: "Total number of items processed, by domain and outcome",
		},
		[]string{"domain", "outcome"},
	)

	operationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_operations_started_total",
			Help: "Total number of bulk operations started, by domain",
		},
		[]string{"domain"},
	)

	operationsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_operations_finished_total",
			Help: "Total number of bulk operations reaching a terminal status",
		},
		[]string{"domain", "status"},
	)
)

// Outcome summarizes what a single controller call did, for presentation.
type Outcome struct {
	ProcessedThisBatch int
	FailedThisBatch    int
	NeedsConfirmation  bool
}

// Controller orchestrates start/continue/cancel transitions over a
// caller-owned BulkOperationState. It is re-entrant: all operation-affecting
// state flows through the state value, and input states are never mutated.
type Controller struct {
	limits limits.Limits
	logger *zap.Logger
	tracer trace.Tracer
}

func New(lim limits.Limits, logger *zap.Logger) *Controller {
	return &Controller{
		limits: lim,
		logger: logger,
		tracer: otel.Tracer("bulk-controller"),
	}
}

// Start prepares a new bulk operation: validates parameters through the
// adapter, counts matching items, enforces the total cap, clamps the batch
// size and builds a fresh active state. No items are processed and on any
// failure no state is created.
func (c *Controller) Start(ctx context.Context, adapter domain.Adapter, actorID string, params map[string]string, requestedBatchSize int) (domain.BulkOperationState, Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "controller.Start")
	defer span.End()

	span.SetAttributes(
		attribute.String("bulk.domain", adapter.Name()),
		attribute.String("actor.id", actorID),
	)

	pctx, err := adapter.Prepare(ctx, params)
	if err != nil {
		span.RecordError(err)
		return domain.BulkOperationState{}, Outcome{}, fmt.Errorf("prepare %s: %w", adapter.Name(), err)
	}

	total, err := adapter.TotalCount(ctx, pctx)
	if err != nil {
		span.RecordError(err)
		return domain.BulkOperationState{}, Outcome{}, fmt.Errorf("count %s: %w", adapter.Name(), err)
	}
	if total < 0 {
		return domain.BulkOperationState{}, Outcome{}, fmt.Errorf("%w: adapter %s reported negative count %d",
			domain.ErrCountFailed, adapter.Name(), total)
	}

	if err := c.limits.ValidateTotal(total); err != nil {
		return domain.BulkOperationState{}, Outcome{}, err
	}

	batchSize := c.limits.ClampBatchSize(requestedBatchSize)
	state := domain.NewBulkOperationState(actorID, pctx, total, batchSize)

	// Nothing to do: complete immediately so the front end never asks for a
	// confirmation that could not process anything.
	if total == 0 {
		state.Status = domain.StatusCompleted
	}

	operationsStarted.WithLabelValues(state.Domain).Inc()

	c.logger.Info("bulk operation started",
		zap.String("op_id", state.OpID),
		zap.String("actor_id", actorID),
		zap.String("domain", state.Domain),
		zap.String("action", state.Action),
		zap.Int("total", total),
		zap.Int("batch_size", batchSize),
	)

	span.SetAttributes(
		attribute.Int("bulk.total", total),
		attribute.Int("bulk.batch_size", batchSize),
	)

	return state, Outcome{NeedsConfirmation: state.Status == domain.StatusActive}, nil
}

// Continue processes exactly one batch: fetch at offset = processed, execute,
// advance. It never loops, regardless of how many batches remain. The input
// state is not mutated; the advanced state is returned.
func (c *Controller) Continue(ctx context.Context, state domain.BulkOperationState, adapter domain.Adapter) (domain.BulkOperationState, Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "controller.Continue")
	defer span.End()

	span.SetAttributes(
		attribute.String("bulk.op_id", state.OpID),
		attribute.String("bulk.domain", state.Domain),
		attribute.Int("bulk.processed", state.Processed),
	)

	if state.Status != domain.StatusActive {
		return state, Outcome{}, fmt.Errorf("%w: cannot continue a %s operation",
			domain.ErrInvalidState, state.Status)
	}

	next := state.Clone()

	// Cap the request at the remaining count so an adapter that over-returns
	// cannot push processed past total.
	fetchSize := next.BatchSize
	if remaining := next.Remaining(); fetchSize > remaining {
		fetchSize = remaining
	}

	items, err := adapter.NextBatch(ctx, next.Context, fetchSize, next.Processed)
	if err != nil {
		span.RecordError(err)
		return state, Outcome{}, fmt.Errorf("fetch batch for %s: %w", state.Domain, err)
	}
	if len(items) > fetchSize {
		items = items[:fetchSize]
	}

	// An empty batch means the underlying set shrank since the count was
	// taken; treat the operation as finished rather than spinning.
	if len(items) == 0 {
		next.Status = domain.StatusCompleted
		operationsFinished.WithLabelValues(next.Domain, string(next.Status)).Inc()
		c.logger.Info("bulk operation completed on empty batch",
			zap.String("op_id", next.OpID),
			zap.Int("processed", next.Processed),
			zap.Int("total", next.Total),
		)
		return next, Outcome{NeedsConfirmation: false}, nil
	}

	results, err := adapter.ExecuteBatch(ctx, items, next.Context)
	if err != nil {
		// Batch-wide fault: the adapter guarantees no items were processed,
		// so the caller retries with the original state.
		span.RecordError(err)
		return state, Outcome{}, fmt.Errorf("execute batch for %s: %w", state.Domain, err)
	}
	if len(results) != len(items) {
		return state, Outcome{}, fmt.Errorf("%w: %s returned %d results for %d items",
			domain.ErrResultMismatch, state.Domain, len(results), len(items))
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
			next.Errors = append(next.Errors, domain.ItemError{ItemID: res.ItemID, Error: res.Error})
			itemsProcessed.WithLabelValues(next.Domain, "failed").Inc()
		} else {
			itemsProcessed.WithLabelValues(next.Domain, "ok").Inc()
		}
	}

	next.Processed += len(items)
	batchesProcessed.WithLabelValues(next.Domain, next.Action).Inc()

	if next.Processed >= next.Total {
		next.Status = domain.StatusCompleted
		operationsFinished.WithLabelValues(next.Domain, string(next.Status)).Inc()
	}

	c.logger.Info("bulk batch processed",
		zap.String("op_id", next.OpID),
		zap.String("domain", next.Domain),
		zap.Int("batch_items", len(items)),
		zap.Int("batch_failures", failed),
		zap.Int("processed", next.Processed),
		zap.Int("total", next.Total),
		zap.String("status", string(next.Status)),
	)

	span.SetAttributes(
		attribute.Int("bulk.batch_items", len(items)),
		attribute.Int("bulk.batch_failures", failed),
	)

	return next, Outcome{
		ProcessedThisBatch: len(items),
		FailedThisBatch:    failed,
		NeedsConfirmation:  next.Status == domain.StatusActive,
	}, nil
}

// Cancel stops an active operation without touching the adapter. Progress is
// frozen where it stands; cancellation is a stop, not a rollback.
func (c *Controller) Cancel(ctx context.Context, state domain.BulkOperationState) (domain.BulkOperationState, Outcome, error) {
	_, span := c.tracer.Start(ctx, "controller.Cancel")
	defer span.End()

	span.SetAttributes(attribute.String("bulk.op_id", state.OpID))

	if state.Status != domain.StatusActive {
		return state, Outcome{}, fmt.Errorf("%w: cannot cancel a %s operation",
			domain.ErrInvalidState, state.Status)
	}

	next := state.Clone()
	next.Status = domain.StatusCancelled
	operationsFinished.WithLabelValues(next.Domain, string(next.Status)).Inc()

	c.logger.Info("bulk operation cancelled",
		zap.String("op_id", next.OpID),
		zap.String("domain", next.Domain),
		zap.Int("processed", next.Processed),
		zap.Int("total", next.Total),
	)

	return next, Outcome{NeedsConfirmation: false}, nil
}
