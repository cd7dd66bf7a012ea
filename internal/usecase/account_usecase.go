// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/service"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
// Email/Password are read for PASSWORD registrations, Phone for PHONE ones.
type RegisterInput struct {
	Username string
	AuthType entity.AuthType
	Email    string
	Phone    string
	Password string
}

// PasswordLoginInput defines the data required for a password login.
type PasswordLoginInput struct {
	Email    string
	Password string
}

// PhoneLoginInput defines the data required to start a phone login.
type PhoneLoginInput struct {
	Phone string
}

// VerifyPhoneLoginInput carries the answer to an OTP challenge. UserID is the
// public identifier echoed back from the login step.
type VerifyPhoneLoginInput struct {
	UserID uuid.UUID
	Phone  string
	Code   string
}

// ChangePasswordInput defines the data required to change a password.
// UserID is the internal identifier taken from the access token subject.
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// --- Output DTOs ---

// RegisterOutput returns the created account. Tokens are present only for
// password registrations; a phone registration must verify an OTP first.
type RegisterOutput struct {
	User   *entity.User
	Tokens *service.TokenPair
}

// LoginOutput returns the authenticated account. Tokens are nil while a
// phone login is pending OTP verification.
type LoginOutput struct {
	User   *entity.User
	Tokens *service.TokenPair
}

// AccountUsecase defines the interface for account registration and
// authentication. This is the contract the delivery layer depends on.
type AccountUsecase interface {
	// Register creates a new account. Password registrations log the account
	// in immediately; phone registrations return no tokens.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// LoginWithPassword authenticates an email/password pair and starts a
	// new session.
	LoginWithPassword(ctx context.Context, input *PasswordLoginInput) (*LoginOutput, error)

	// LoginWithPhone checks the account and dispatches an OTP to the phone.
	// The returned output carries no tokens; the client must verify the code.
	LoginWithPhone(ctx context.Context, input *PhoneLoginInput) (*LoginOutput, error)

	// VerifyPhoneLogin checks the OTP answer and starts a new session.
	VerifyPhoneLogin(ctx context.Context, input *VerifyPhoneLoginInput) (*LoginOutput, error)

	// ChangePassword verifies the old password and stores a new digest.
	ChangePassword(ctx context.Context, input *ChangePasswordInput) error
}
