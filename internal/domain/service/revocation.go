package service

import (
	"context"

	"github.com/google/uuid"
)

// RevocationCache is the optional out-of-band revocation check for access
// tokens, keyed by the token's jti. Access tokens are stateless by default
// and simply expire; high-security deployments can plug a cache in so that
// individual access tokens can be killed before expiry. Absence of the hook
// means always-valid-until-expiry.
type RevocationCache interface {
	// Revoke marks an access token's jti as revoked. The implementation
	// keeps the mark at least as long as an access token can stay valid.
	Revoke(ctx context.Context, jti uuid.UUID) error

	// IsRevoked reports whether the jti was revoked.
	IsRevoked(ctx context.Context, jti uuid.UUID) (bool, error)
}
