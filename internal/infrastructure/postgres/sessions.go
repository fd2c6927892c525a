// Package postgres implements the session store holding serialized bulk
// state between conversational turns, keyed by actor.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/temmy762/jarvis/internal/domain"
)

const queryTimeout = 5 * time.Second

// SessionStore persists at most one serialized bulk session per actor. Rows
// past their expiry are invisible to Get; Sweep removes them for good. The
// controller never sees any of this - expiry of an abandoned session is
// purely the store's concern.
type SessionStore struct {
	db     *sql.DB
	ttl    time.Duration
	tracer trace.Tracer
}

func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{
		db:     db,
		ttl:    ttl,
		tracer: otel.Tracer("session-store"),
	}
}

func (s *SessionStore) Get(ctx context.Context, actorID string) (domain.BulkOperationState, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "sessions.Get")
	defer span.End()

	span.SetAttributes(attribute.String("actor.id", actorID))

	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state
		FROM bulk_sessions
		WHERE actor_id = $1 AND expires_at > $2
	`, actorID, time.Now().UTC()).Scan(&blob)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.BulkOperationState{}, domain.ErrSessionNotFound
	}
	if err != nil {
		span.RecordError(err)
		return domain.BulkOperationState{}, fmt.Errorf("failed to load session: %w", err)
	}

	state, err := domain.DecodeState(blob)
	if err != nil {
		span.RecordError(err)
		return domain.BulkOperationState{}, fmt.Errorf("stored session for %s is corrupt: %w", actorID, err)
	}
	return state, nil
}

func (s *SessionStore) Put(ctx context.Context, state domain.BulkOperationState) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "sessions.Put")
	defer span.End()

	span.SetAttributes(
		attribute.String("actor.id", state.ActorID),
		attribute.String("bulk.op_id", state.OpID),
	)

	blob, err := state.Encode()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bulk_sessions (actor_id, op_id, state, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (actor_id)
		DO UPDATE SET op_id = $2, state = $3, updated_at = $4, expires_at = $5
	`, state.ActorID, state.OpID, blob, now, now.Add(s.ttl))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "sessions.Delete")
	defer span.End()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM bulk_sessions WHERE actor_id = $1`, actorID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed. Run
// periodically from main.
func (s *SessionStore) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "sessions.Sweep")
	defer span.End()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bulk_sessions WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep count: %w", err)
	}
	span.SetAttributes(attribute.Int64("sessions.swept", n))
	return n, nil
}
