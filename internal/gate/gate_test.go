package gate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temmy762/jarvis/internal/adapters"
	"github.com/temmy762/jarvis/internal/adapters/memory"
	"github.com/temmy762/jarvis/internal/controller"
	"github.com/temmy762/jarvis/internal/domain"
	"github.com/temmy762/jarvis/internal/limits"
)

func newTestGate(t *testing.T, adapter *memory.Adapter) (*Gate, *controller.Controller) {
	t.Helper()
	registry := adapters.NewRegistry()
	if err := registry.Register(adapter); err != nil {
		t.Fatalf("register adapter: %v", err)
	}
	ctrl := controller.New(limits.Defaults(), zap.NewNop())
	return New(ctrl, registry, zap.NewNop()), ctrl
}

func activeState(t *testing.T, ctrl *controller.Controller, adapter *memory.Adapter) domain.BulkOperationState {
	t.Helper()
	state, _, err := ctrl.Start(context.Background(), adapter, "actor-1",
		map[string]string{"action": memory.ActionArchive}, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return state
}

func memItems(n int) []memory.Item {
	items := make([]memory.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, memory.Item{ID: string(rune('a' + i)), Name: "item"})
	}
	return items
}

func TestHandleTurnNoSessionPassesThrough(t *testing.T) {
	adapter := memory.New("notes", memItems(10))
	g, _ := newTestGate(t, adapter)

	res, err := g.HandleTurn(context.Background(), "continue", nil)
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if res.Handled {
		t.Error("a turn with no active session must not be handled by the gate")
	}
}

func TestHandleTurnContinueAdvances(t *testing.T) {
	adapter := memory.New("notes", memItems(12))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)

	res, err := g.HandleTurn(context.Background(), "yes", &state)
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if !res.Handled {
		t.Fatal("continue must be handled")
	}
	if res.State == nil {
		t.Fatal("an active operation must return updated state")
	}
	if res.State.Processed != 5 {
		t.Errorf("processed = %d, want 5", res.State.Processed)
	}
	if res.ClearState {
		t.Error("state must not be cleared while the operation is active")
	}
	if state.Processed != 0 {
		t.Error("caller state was mutated")
	}
	if !strings.Contains(res.Response, "5") {
		t.Errorf("response should report progress, got %q", res.Response)
	}
}

func TestHandleTurnContinueToCompletionClearsState(t *testing.T) {
	adapter := memory.New("notes", memItems(4))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)

	res, err := g.HandleTurn(context.Background(), "continue", &state)
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if !res.ClearState {
		t.Error("a completed operation must clear its session")
	}
	if res.State != nil {
		t.Error("no state should be persisted for a completed operation")
	}
	if !strings.Contains(res.Response, "Completed") {
		t.Errorf("expected a completion summary, got %q", res.Response)
	}
}

func TestHandleTurnCancelClearsState(t *testing.T) {
	adapter := memory.New("notes", memItems(12))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)

	res, err := g.HandleTurn(context.Background(), "stop", &state)
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if !res.Handled || !res.ClearState {
		t.Errorf("cancel must be handled and clear the session: %+v", res)
	}
	if !strings.Contains(res.Response, "Cancelled") {
		t.Errorf("expected a cancellation summary, got %q", res.Response)
	}
	if got := len(adapter.Applied()); got != 0 {
		t.Errorf("cancel must not execute anything, %d items touched", got)
	}
}

func TestHandleTurnUnrelatedRemindsAndKeepsState(t *testing.T) {
	adapter := memory.New("notes", memItems(12))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)

	res, err := g.HandleTurn(context.Background(), "what's on my calendar today", &state)
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if !res.Handled {
		t.Fatal("unrelated turns during a session must be handled with a reminder")
	}
	if res.State == nil || res.State.Processed != 0 {
		t.Error("a reminder must leave the state untouched")
	}
	if !strings.Contains(res.Response, "in progress") {
		t.Errorf("expected a reminder, got %q", res.Response)
	}
	if got := len(adapter.Applied()); got != 0 {
		t.Errorf("a reminder must not execute anything, %d items touched", got)
	}
}

func TestHandleTurnRetryableFailureRetainsState(t *testing.T) {
	adapter := memory.New("notes", memItems(12))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)
	adapter.FetchErr = errors.New("backend down")

	res, err := g.HandleTurn(context.Background(), "continue", &state)
	if err != nil {
		t.Fatalf("retryable failures are reported in the response, not as errors: %v", err)
	}
	if !res.Handled {
		t.Fatal("a failed batch is still a handled turn")
	}
	if res.State == nil || res.State.Processed != 0 {
		t.Error("state must be retained unchanged after a failed batch")
	}
	if res.ClearState {
		t.Error("a retryable failure must not clear the session")
	}
	if !strings.Contains(res.Response, "nothing was changed") {
		t.Errorf("expected a retry notice, got %q", res.Response)
	}

	// The same turn repeated after recovery succeeds.
	adapter.FetchErr = nil
	res, err = g.HandleTurn(context.Background(), "continue", res.State)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.State == nil || res.State.Processed != 5 {
		t.Errorf("retry should process the first batch: %+v", res.State)
	}
}

func TestHandleTurnMissingAdapterClearsSession(t *testing.T) {
	adapter := memory.New("notes", memItems(12))
	g, ctrl := newTestGate(t, adapter)
	state := activeState(t, ctrl, adapter)
	state.Domain = "ghost"

	res, err := g.HandleTurn(context.Background(), "continue", &state)
	if !errors.Is(err, domain.ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
	if !res.ClearState {
		t.Error("a session pointing at an unregistered domain must be dropped")
	}
}
