package domain

import "context"

// SessionStore persists the serialized bulk state between conversational
// turns, keyed by actor. At most one session exists per actor at a time.
type SessionStore interface {
	// Get retrieves the actor's session, or ErrSessionNotFound when none
	// exists or the session has expired.
	Get(ctx context.Context, actorID string) (BulkOperationState, error)

	// Put upserts the actor's session and refreshes its expiry.
	Put(ctx context.Context, state BulkOperationState) error

	// Delete removes the actor's session. Deleting an absent session is not
	// an error.
	Delete(ctx context.Context, actorID string) error
}
