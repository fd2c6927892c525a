// Package gate is the single per-turn decision point for bulk operations.
// When a session is active only continue/cancel are accepted; anything else
// gets a reminder of the pending operation. When no session is active the
// turn is not handled here and routes to ordinary intent handling.
package gate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temmy762/jarvis/internal/adapters"
	"github.com/temmy762/jarvis/internal/controller"
	"github.com/temmy762/jarvis/internal/domain"
	"github.com/temmy762/jarvis/internal/presenter"
)

// Result is the gate's verdict for one turn. When Handled is false the front
// end routes the utterance through its normal handling; otherwise Response
// goes to the user, and State/ClearState tell the caller what to persist.
type Result struct {
	Handled    bool
	Response   string
	State      *domain.BulkOperationState
	ClearState bool
}

// Gate dispatches classified utterances to the controller.
type Gate struct {
	ctrl     *controller.Controller
	registry *adapters.Registry
	logger   *zap.Logger
}

func New(ctrl *controller.Controller, registry *adapters.Registry, logger *zap.Logger) *Gate {
	return &Gate{ctrl: ctrl, registry: registry, logger: logger}
}

// HandleTurn runs the gate for one utterance. active is the actor's stored
// session, or nil when none exists.
func (g *Gate) HandleTurn(ctx context.Context, utterance string, active *domain.BulkOperationState) (Result, error) {
	if active == nil {
		return Result{Handled: false}, nil
	}

	state := active.Clone()

	switch Classify(utterance) {
	case IntentContinue:
		return g.handleContinue(ctx, state)
	case IntentCancel:
		return g.handleCancel(ctx, state)
	default:
		return Result{
			Handled:  true,
			Response: presenter.Reminder(state),
			State:    &state,
		}, nil
	}
}

func (g *Gate) handleContinue(ctx context.Context, state domain.BulkOperationState) (Result, error) {
	adapter, err := g.registry.Resolve(state.Domain)
	if err != nil {
		// A session referencing an unregistered domain is a wiring bug; the
		// session is unusable, so drop it rather than trap the actor.
		g.logger.Error("active session has no adapter",
			zap.String("op_id", state.OpID),
			zap.String("domain", state.Domain),
			zap.Error(err),
		)
		return Result{ClearState: true}, fmt.Errorf("resolve adapter for active session: %w", err)
	}

	next, outcome, err := g.ctrl.Continue(ctx, state, adapter)
	if err != nil {
		if domain.IsRetryable(err) {
			// State unchanged; the user can repeat the turn or cancel.
			g.logger.Warn("bulk batch failed, state retained",
				zap.String("op_id", state.OpID),
				zap.Error(err),
			)
			return Result{
				Handled:  true,
				Response: presenter.RetryNotice(state),
				State:    &state,
			}, nil
		}
		return Result{}, err
	}

	res := Result{
		Handled:  true,
		Response: presenter.Render(next, outcome),
	}
	if next.Status.IsTerminal() {
		res.ClearState = true
	} else {
		res.State = &next
	}
	return res, nil
}

func (g *Gate) handleCancel(ctx context.Context, state domain.BulkOperationState) (Result, error) {
	next, outcome, err := g.ctrl.Cancel(ctx, state)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Handled:    true,
		Response:   presenter.Render(next, outcome),
		ClearState: true,
	}, nil
}
