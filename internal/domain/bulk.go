package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationStatus is the lifecycle state of a bulk operation. Active is the
// only non-terminal status; completed and cancelled are both terminal.
type OperationStatus string

const (
	StatusActive    OperationStatus = "active"
	StatusCompleted OperationStatus = "completed"
	StatusCancelled OperationStatus = "cancelled"
)

func (s OperationStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s OperationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PreparedBulkContext is the immutable output of Adapter.Prepare. It carries
// everything an adapter needs to count, fetch and execute, and nothing else:
// no live item data, no handles. It is fully re-derivable from the raw
// user-supplied parameters.
type PreparedBulkContext struct {
	Domain       string            `json:"domain"`
	Action       string            `json:"action"`
	QueryParams  map[string]string `json:"query_params"`
	ActionParams map[string]string `json:"action_params"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// BulkItem is a single unit of work within one batch. Items are ephemeral:
// fetched per batch, never persisted across turns.
type BulkItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	RawData     []byte `json:"raw_data,omitempty"`
}

// BulkResult is the outcome of executing the action on one item. A failed
// item is reported here, never as an error from ExecuteBatch.
type BulkResult struct {
	ItemID  string `json:"item_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ItemError records one failed item, accumulated in order across batches.
type ItemError struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

// BulkOperationState is the full serialized record of progress through one
// multi-item operation. The front end owns it between turns; the controller
// holds it only for the duration of a single call.
type BulkOperationState struct {
	OpID      string              `json:"op_id"`
	ActorID   string              `json:"actor_id"`
	Domain    string              `json:"domain"`
	Action    string              `json:"action"`
	Context   PreparedBulkContext `json:"context"`
	Total     int                 `json:"total"`
	BatchSize int                 `json:"batch_size"`
	Processed int                 `json:"processed"`
	Errors    []ItemError         `json:"errors,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Status    OperationStatus     `json:"status"`
}

// NewBulkOperationState creates a fresh active state with nothing processed.
func NewBulkOperationState(actorID string, pctx PreparedBulkContext, total, batchSize int) BulkOperationState {
	return BulkOperationState{
		OpID:      uuid.New().String(),
		ActorID:   actorID,
		Domain:    pctx.Domain,
		Action:    pctx.Action,
		Context:   pctx,
		Total:     total,
		BatchSize: batchSize,
		Processed: 0,
		CreatedAt: time.Now().UTC(),
		Status:    StatusActive,
	}
}

// Remaining returns the number of items not yet processed.
func (s BulkOperationState) Remaining() int {
	if s.Processed > s.Total {
		return 0
	}
	return s.Total - s.Processed
}

// Validate checks the structural invariants of the state.
func (s BulkOperationState) Validate() error {
	if s.OpID == "" {
		return fmt.Errorf("%w: missing op_id", ErrInvalidParams)
	}
	if s.Domain == "" {
		return fmt.Errorf("%w: missing domain", ErrInvalidParams)
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidParams, s.Status)
	}
	if s.Total < 0 {
		return fmt.Errorf("%w: negative total %d", ErrInvalidParams, s.Total)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("%w: non-positive batch size %d", ErrInvalidParams, s.BatchSize)
	}
	if s.Processed < 0 || s.Processed > s.Total {
		return fmt.Errorf("%w: processed %d out of range [0,%d]", ErrInvalidParams, s.Processed, s.Total)
	}
	return nil
}

// Clone returns a deep copy so callers can advance a state without mutating
// the caller-owned value.
func (s BulkOperationState) Clone() BulkOperationState {
	out := s
	out.Context = s.Context.clone()
	if s.Errors != nil {
		out.Errors = make([]ItemError, len(s.Errors))
		copy(out.Errors, s.Errors)
	}
	return out
}

func (c PreparedBulkContext) clone() PreparedBulkContext {
	out := c
	out.QueryParams = cloneStringMap(c.QueryParams)
	out.ActionParams = cloneStringMap(c.ActionParams)
	out.Metadata = cloneStringMap(c.Metadata)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Encode serializes the state to JSON for persistence between turns.
func (s BulkOperationState) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bulk state: %w", err)
	}
	return data, nil
}

// DecodeState reconstructs a state from its JSON encoding and re-checks the
// structural invariants, so a corrupted blob surfaces here rather than
// mid-operation.
func DecodeState(data []byte) (BulkOperationState, error) {
	var s BulkOperationState
	if err := json.Unmarshal(data, &s); err != nil {
		return BulkOperationState{}, fmt.Errorf("failed to decode bulk state: %w", err)
	}
	if err := s.Validate(); err != nil {
		return BulkOperationState{}, err
	}
	return s, nil
}
