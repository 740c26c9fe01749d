package repository

import (
	"context"

	"github.com/utafrali/shopvista/internal/domain"
)

// SessionRepository stores storefront sessions. Sessions are transient and
// disappear once their ExpiresAt passes.
type SessionRepository interface {
	// Get retrieves a live session by ID. A missing or expired session yields
	// an error matching apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// SaveIfVersion stores session only if the stored version equals
	// expectedVersion (0 meaning "not stored yet"). On success the session's
	// Version is advanced by one. It returns false when another writer got
	// there first.
	SaveIfVersion(ctx context.Context, session *domain.Session, expectedVersion int) (bool, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
