package usecase

import (
	"context"

	"securelogin/internal/domain/service"

	"github.com/google/uuid"
)

// SessionTokenUsecase is the session/token lifecycle engine: it mints token
// pairs bound to a per-login session row, rotates refresh tokens, and
// implements logout, cross-session kickout and revocation checks.
type SessionTokenUsecase interface {
	// StartNewSession mints a fresh token pair under a brand-new session
	// identifier and persists the session row.
	StartNewSession(ctx context.Context, userID uuid.UUID) (*service.TokenPair, error)

	// Refresh rotates the refresh token: the session keeps its identifier,
	// the stored jti moves to the newly minted token and the superseded
	// token becomes provably stale. The new access token is non-fresh.
	Refresh(ctx context.Context, claims *service.Claims) (*service.TokenPair, error)

	// Logout deactivates the session named by the refresh token. When access
	// token claims are supplied their subject must match the refresh
	// token's.
	Logout(ctx context.Context, refreshToken string, accessClaims *service.Claims) error

	// LogoutAllOtherSessions deactivates every session of the user except
	// the one named by the refresh token.
	LogoutAllOtherSessions(ctx context.Context, accessClaims *service.Claims, refreshToken string) error

	// IsRevoked reports whether the token is revoked. Refresh tokens are
	// checked against the session row; access tokens against the optional
	// revocation cache.
	IsRevoked(ctx context.Context, claims *service.Claims) (bool, error)

	// PurgeExpiredSessions removes session rows whose refresh token has
	// expired. Housekeeping; correctness never depends on it.
	PurgeExpiredSessions(ctx context.Context) error
}
