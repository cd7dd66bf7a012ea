// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"securelogin/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when no session row exists for a session identifier.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the operations for persisting the one active
// session record per login. Rows are deactivated, never deleted, by the
// session engine; physical deletion of expired rows is a maintenance concern.
type SessionRepository interface {
	// Create persists a new session row at login time.
	Create(ctx context.Context, session *entity.Session) error

	// FindBySessionID retrieves a session by its stable session identifier.
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error)

	// FindBySessionIDForUpdate retrieves a session by its stable session
	// identifier and locks the row until the surrounding transaction ends.
	// Refresh rotation uses this to serialize concurrent rotations of the
	// same session.
	FindBySessionIDForUpdate(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error)

	// FindByUserID retrieves every session row for a user, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// UpdateRotation overwrites the session's jti and token timestamps after
	// a refresh. The session identifier never changes.
	UpdateRotation(ctx context.Context, session *entity.Session) error

	// Deactivate sets active=false on the session row. Deactivating an
	// already inactive row is a no-op.
	Deactivate(ctx context.Context, sessionID uuid.UUID) error

	// DeleteExpired removes session rows whose refresh token expired before
	// the cutoff. Housekeeping only; the engine never relies on deletion.
	DeleteExpired(ctx context.Context) error
}
