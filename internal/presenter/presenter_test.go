package presenter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/temmy762/jarvis/internal/controller"
	"github.com/temmy762/jarvis/internal/domain"
)

func testState(processed, total int, status domain.OperationStatus) domain.BulkOperationState {
	return domain.BulkOperationState{
		OpID:      "op-1",
		ActorID:   "actor-1",
		Domain:    "email",
		Action:    "archive",
		Total:     total,
		BatchSize: 10,
		Processed: processed,
		Status:    status,
	}
}

func TestRenderReady(t *testing.T) {
	got := Render(testState(0, 50, domain.StatusActive), controller.Outcome{NeedsConfirmation: true})

	for _, want := range []string{"50 items", "batches of 10", "'continue'", "'cancel'"} {
		if !strings.Contains(got, want) {
			t.Errorf("ready message missing %q: %q", want, got)
		}
	}
}

func TestRenderProgress(t *testing.T) {
	got := Render(testState(20, 50, domain.StatusActive),
		controller.Outcome{ProcessedThisBatch: 10, NeedsConfirmation: true})

	for _, want := range []string{"10 items", "20/50", "30 remaining", "'continue'", "'cancel'"} {
		if !strings.Contains(got, want) {
			t.Errorf("progress message missing %q: %q", want, got)
		}
	}
}

func TestRenderProgressWithFailures(t *testing.T) {
	got := Render(testState(20, 50, domain.StatusActive),
		controller.Outcome{ProcessedThisBatch: 10, FailedThisBatch: 2, NeedsConfirmation: true})

	if !strings.Contains(got, "2 failed") {
		t.Errorf("expected batch failure note, got %q", got)
	}
}

func TestRenderCompleted(t *testing.T) {
	state := testState(50, 50, domain.StatusCompleted)
	state.Errors = []domain.ItemError{{ItemID: "a", Error: "x"}, {ItemID: "b", Error: "y"}}

	got := Render(state, controller.Outcome{})
	for _, want := range []string{"Completed", "50/50", "0 remaining", "2 items failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("completion message missing %q: %q", want, got)
		}
	}
}

func TestRenderCancelled(t *testing.T) {
	got := Render(testState(20, 50, domain.StatusCancelled), controller.Outcome{})

	for _, want := range []string{"Cancelled", "archive", "email", "20/50", "30 were left untouched"} {
		if !strings.Contains(got, want) {
			t.Errorf("cancellation message missing %q: %q", want, got)
		}
	}
}

func TestReminder(t *testing.T) {
	got := Reminder(testState(20, 50, domain.StatusActive))

	for _, want := range []string{"in progress", "archive", "email", "20/50", "'continue'", "'cancel'"} {
		if !strings.Contains(got, want) {
			t.Errorf("reminder missing %q: %q", want, got)
		}
	}
}

func TestRetryNotice(t *testing.T) {
	got := RetryNotice(testState(20, 50, domain.StatusActive))

	for _, want := range []string{"nothing was changed", "20/50", "'continue'", "'cancel'"} {
		if !strings.Contains(got, want) {
			t.Errorf("retry notice missing %q: %q", want, got)
		}
	}
}

func TestErrorListCapsOutput(t *testing.T) {
	if got := ErrorList(nil); got != "" {
		t.Errorf("empty error list should render empty, got %q", got)
	}

	errs := make([]domain.ItemError, 0, 15)
	for i := 0; i < 15; i++ {
		errs = append(errs, domain.ItemError{ItemID: fmt.Sprintf("item-%d", i), Error: "failed"})
	}

	got := ErrorList(errs)
	if !strings.Contains(got, "... and 5 more") {
		t.Errorf("expected overflow note, got %q", got)
	}
	if lines := strings.Count(got, "\n"); lines != 11 {
		t.Errorf("expected header, 10 entries and an overflow line, got %d newlines:\n%s", lines, got)
	}
}
