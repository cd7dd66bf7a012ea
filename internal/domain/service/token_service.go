package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type discriminators carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims defines the custom claims carried by both token kinds. Access
// tokens carry Fresh; refresh tokens carry SessionID. JTI is significant for
// refresh tokens, where it is mirrored into the session row for revocation
// checking.
type Claims struct {
	UserID    uuid.UUID // Internal user id (sub claim).
	SessionID uuid.UUID // Stable session identifier (sid claim, refresh only).
	JTI       uuid.UUID // Unique token identifier (jti claim).
	Fresh     bool      // Recency-of-credential flag (access only).
	Type      string    // "access" or "refresh".
	jwt.RegisteredClaims
}

// TokenPair is one access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GeneratePair creates an access/refresh token pair bound to one session.
	// A fresh pair is issued at login; refreshes issue non-fresh pairs.
	GeneratePair(userID, sessionID uuid.UUID, fresh bool) (*TokenPair, *Claims, error)

	// ValidateToken checks the signature and expiry of a token string and
	// returns its claims.
	ValidateToken(tokenString string) (*Claims, error)

	// DecodeToken parses a token string without requiring it to be unexpired.
	// Logout accepts an expired refresh token; the session row is the source
	// of truth there.
	DecodeToken(tokenString string) (*Claims, error)

	// AccessTokenDuration returns the configured access token lifetime.
	AccessTokenDuration() time.Duration

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
