// Package app owns the per-actor session lifecycle around the bulk engine:
// it loads the persisted state at the start of each turn, dispatches through
// the gate or controller, and writes the updated state back (or deletes it
// once terminal).
package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/temmy762/jarvis/internal/adapters"
	"github.com/temmy762/jarvis/internal/controller"
	"github.com/temmy762/jarvis/internal/domain"
	"github.com/temmy762/jarvis/internal/gate"
	"github.com/temmy762/jarvis/internal/presenter"
	"github.com/temmy762/jarvis/pkg/auth"
)

var (
	errForbidden       = errors.New("insufficient permissions for bulk operations")
	errUnauthenticated = errors.New("authentication required")
)

// TurnReply is the outcome of routing one utterance through the bulk gate.
type TurnReply struct {
	Handled bool   `json:"handled"`
	Message string `json:"message,omitempty"`
}

// SessionService wires the store, registry, controller and gate together.
type SessionService struct {
	store    domain.SessionStore
	registry *adapters.Registry
	ctrl     *controller.Controller
	gate     *gate.Gate
	authz    *auth.Authorizer
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSessionService(store domain.SessionStore, registry *adapters.Registry, ctrl *controller.Controller, g *gate.Gate, authz *auth.Authorizer, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:    store,
		registry: registry,
		ctrl:     ctrl,
		gate:     g,
		authz:    authz,
		logger:   logger,
		tracer:   otel.Tracer("bulk-session-service"),
	}
}

// StartOperation begins a new bulk operation for the authenticated actor.
// An actor gets at most one active session: starting while one exists fails
// rather than overwriting it, because the controller cannot merge two
// in-flight operations.
func (s *SessionService) StartOperation(ctx context.Context, domainTag string, params map[string]string, batchSize int) (string, error) {
	ctx, span := s.tracer.Start(ctx, "StartOperation")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	if !s.authz.CanRunBulk(actor) {
		return "", errForbidden
	}

	span.SetAttributes(
		attribute.String("actor.id", actor.ActorID),
		attribute.String("bulk.domain", domainTag),
	)

	existing, err := s.store.Get(ctx, actor.ActorID)
	switch {
	case err == nil:
		if existing.Status == domain.StatusActive {
			return "", fmt.Errorf("%w: finish it or say 'cancel' first", domain.ErrSessionActive)
		}
		// A terminal state left behind is stale; clear it and move on.
		if err := s.store.Delete(ctx, actor.ActorID); err != nil {
			return "", err
		}
	case errors.Is(err, domain.ErrSessionNotFound):
	default:
		return "", err
	}

	adapter, err := s.registry.Resolve(domainTag)
	if err != nil {
		return "", err
	}

	state, outcome, err := s.ctrl.Start(ctx, adapter, actor.ActorID, params, batchSize)
	if err != nil {
		return "", err
	}

	if state.Status == domain.StatusActive {
		if err := s.store.Put(ctx, state); err != nil {
			return "", fmt.Errorf("failed to persist new session: %w", err)
		}
	}

	return presenter.Render(state, outcome), nil
}

// HandleTurn routes one utterance through the gate. Not-handled turns belong
// to the front end's ordinary intent handling.
func (s *SessionService) HandleTurn(ctx context.Context, utterance string) (TurnReply, error) {
	ctx, span := s.tracer.Start(ctx, "HandleTurn")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		return TurnReply{}, fmt.Errorf("%w: %v", errUnauthenticated, err)
	}

	span.SetAttributes(attribute.String("actor.id", actor.ActorID))

	var active *domain.BulkOperationState
	state, err := s.store.Get(ctx, actor.ActorID)
	switch {
	case err == nil:
		active = &state
	case errors.Is(err, domain.ErrSessionNotFound):
	default:
		return TurnReply{}, err
	}

	result, err := s.gate.HandleTurn(ctx, utterance, active)
	if err != nil {
		if result.ClearState {
			if delErr := s.store.Delete(ctx, actor.ActorID); delErr != nil {
				s.logger.Error("failed to clear broken session",
					zap.String("actor_id", actor.ActorID),
					zap.Error(delErr),
				)
			}
		}
		return TurnReply{}, err
	}

	if !result.Handled {
		return TurnReply{Handled: false}, nil
	}

	switch {
	case result.ClearState:
		if err := s.store.Delete(ctx, actor.ActorID); err != nil {
			return TurnReply{}, fmt.Errorf("failed to clear finished session: %w", err)
		}
	case result.State != nil:
		if err := s.store.Put(ctx, *result.State); err != nil {
			return TurnReply{}, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	return TurnReply{Handled: true, Message: result.Response}, nil
}

// Status summarizes the actor's current session, if any.
func (s *SessionService) Status(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "Status")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnauthenticated, err)
	}

	state, err := s.store.Get(ctx, actor.ActorID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "No bulk operation in progress.", nil
	}
	if err != nil {
		return "", err
	}

	return presenter.Reminder(state), nil
}

// Domains lists the registered adapter tags, for discovery.
func (s *SessionService) Domains() []string {
	return s.registry.Names()
}
