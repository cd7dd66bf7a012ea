// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuthType identifies the single authentication method configured for an account.
type AuthType string

// Supported authentication methods. Federated providers are accepted by the
// boundary layer but not implemented yet.
const (
	AuthTypePassword AuthType = "PASSWORD"
	AuthTypePhone    AuthType = "PHONE"
	AuthTypeAppleID  AuthType = "APPLE_ID"
	AuthTypeGoogleID AuthType = "GOOGLE_ID"
)

// Valid reports whether t is one of the accepted authentication methods.
func (t AuthType) Valid() bool {
	switch t {
	case AuthTypePassword, AuthTypePhone, AuthTypeAppleID, AuthTypeGoogleID:
		return true
	}

	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	// UserStatusActive marks an account that may authenticate.
	UserStatusActive UserStatus = "active"
	// UserStatusClosed marks a retired account. Its email/phone may be
	// reused by a new registration.
	UserStatusClosed UserStatus = "closed"
)

// User is the identity record of one account. Exactly one authentication
// method is active per account: Email/PasswordHash are set when AuthType is
// PASSWORD, Phone when AuthType is PHONE.
type User struct {
	ID           uuid.UUID  // Internal identifier. Never leaves the service.
	PublicID     uuid.UUID  // Opaque identifier exposed to clients.
	Username     string     // Display name. Not unique.
	AuthType     AuthType   // The account's configured authentication method.
	Email        string     // Login identifier when AuthType is PASSWORD.
	Phone        string     // Login identifier when AuthType is PHONE (E.164).
	PasswordHash string     // bcrypt digest, present iff AuthType is PASSWORD.
	Status       UserStatus // active or closed.
	CreatedAt    time.Time  // Timestamp of registration.
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
