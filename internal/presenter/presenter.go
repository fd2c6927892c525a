// Package presenter formats bulk operation state for the conversational
// front end. Pure formatting only: no business logic, no side effects.
package presenter

import (
	"fmt"
	"strings"

	"github.com/temmy762/jarvis/internal/controller"
	"github.com/temmy762/jarvis/internal/domain"
)

const maxListedErrors = 10

// Render produces the user-facing summary for a state and the outcome of the
// latest controller call. It always reports processed, total and remaining
// counts, and the error count once the operation is terminal.
func Render(state domain.BulkOperationState, outcome controller.Outcome) string {
	switch state.Status {
	case domain.StatusCancelled:
		return Cancelled(state)
	case domain.StatusCompleted:
		return Completed(state)
	default:
		if state.Processed == 0 && outcome.ProcessedThisBatch == 0 {
			return fmt.Sprintf(
				"Ready to process %d %s in batches of %d. Say 'continue' to start, or 'cancel' to abort.",
				state.Total, plural(state.Total, "item", "items"), state.BatchSize)
		}
		return fmt.Sprintf(
			"Processed %d %s this batch (%d/%d total).%s %d remaining. Say 'continue' for the next batch, or 'cancel' to stop.",
			outcome.ProcessedThisBatch, plural(outcome.ProcessedThisBatch, "item", "items"),
			state.Processed, state.Total,
			batchErrorNote(outcome), state.Remaining())
	}
}

// Completed summarizes a finished operation, including the error count.
func Completed(state domain.BulkOperationState) string {
	msg := fmt.Sprintf("Completed: processed %d/%d items, %d remaining.",
		state.Processed, state.Total, state.Remaining())
	if n := len(state.Errors); n > 0 {
		msg += fmt.Sprintf(" %d %s failed.", n, plural(n, "item", "items"))
	}
	return msg
}

// Cancelled summarizes an operation stopped mid-run. Unprocessed items are
// left untouched, and the summary says so.
func Cancelled(state domain.BulkOperationState) string {
	msg := fmt.Sprintf("Cancelled the bulk %s on %s. %d/%d items were processed; %d were left untouched.",
		state.Action, state.Domain, state.Processed, state.Total, state.Remaining())
	if n := len(state.Errors); n > 0 {
		msg += fmt.Sprintf(" %d %s failed before cancellation.", n, plural(n, "item", "items"))
	}
	return msg
}

// Reminder is shown when an utterance is unrelated to the pending operation:
// the gate refuses to guess and restates the two valid responses.
func Reminder(state domain.BulkOperationState) string {
	return fmt.Sprintf(
		"You have a bulk %s on %s in progress (%d/%d items processed, %d remaining). Say 'continue' to process the next batch, or 'cancel' to stop.",
		state.Action, state.Domain, state.Processed, state.Total, state.Remaining())
}

// RetryNotice is shown when a batch failed wholesale and the state was left
// unchanged, so the same turn can be repeated.
func RetryNotice(state domain.BulkOperationState) string {
	return fmt.Sprintf(
		"That batch could not be processed; nothing was changed (%d/%d items done so far). Say 'continue' to try again, or 'cancel' to stop.",
		state.Processed, state.Total)
}

// ErrorList formats accumulated per-item failures, capped so a long run
// cannot flood the conversation.
func ErrorList(errs []domain.ItemError) string {
	if len(errs) == 0 {
		return ""
	}
	lines := make([]string, 0, maxListedErrors+2)
	lines = append(lines, "Errors encountered:")
	for i, e := range errs {
		if i == maxListedErrors {
			lines = append(lines, fmt.Sprintf("... and %d more", len(errs)-maxListedErrors))
			break
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", e.ItemID, e.Error))
	}
	return strings.Join(lines, "\n")
}

func batchErrorNote(outcome controller.Outcome) string {
	if outcome.FailedThisBatch == 0 {
		return ""
	}
	return fmt.Sprintf(" %d failed.", outcome.FailedThisBatch)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
