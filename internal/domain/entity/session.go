// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the persisted record of one login. The SessionID is minted once
// at login and survives every refresh; the JTI always mirrors the most
// recently issued refresh token, which is what makes a superseded refresh
// token provably stale. A session is never resurrected: logout flips Active
// to false and a new login mints a new SessionID.
type Session struct {
	ID        uuid.UUID // Internal row identifier.
	SessionID uuid.UUID // Stable session identifier (sid claim).
	UserID    uuid.UUID // Internal id of the owning user.
	JTI       uuid.UUID // Identifier of the current refresh token.
	Active    bool      // False after logout or cross-session kickout.
	CreatedAt time.Time // Issued-at of the current refresh token.
	ExpiresAt time.Time // Expiry of the current refresh token. Used to purge stale rows.
}

// Expired reports whether the session's current refresh token has expired.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
