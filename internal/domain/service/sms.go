package service

import "context"

// SMSSender is the capability contract for one SMS vendor: deliver a login
// code to a phone and verify a code the user typed back. Verify is part of
// the contract because some vendors (Twilio Verify) hold the code on their
// side instead of the local challenge store.
type SMSSender interface {
	// Send delivers a one-time login code to the phone. A timeout or vendor
	// rejection is returned as an error, never a hang.
	Send(ctx context.Context, phone string) error

	// Verify checks a code the user received on the phone.
	Verify(ctx context.Context, phone, code string) (bool, error)
}

// SMSGateway routes a phone number to the vendor responsible for it and
// normalizes vendor failures.
type SMSGateway interface {
	// SenderFor selects the SMSSender for a phone number.
	SenderFor(phone string) (SMSSender, error)
}

// OTPStore generates, persists and verifies one-time numeric codes per phone,
// with time-based expiry. One live challenge per phone; issuing overwrites.
type OTPStore interface {
	// Issue generates a fixed-length decimal code, persists it with a fresh
	// creation timestamp and returns it.
	Issue(ctx context.Context, phone string) (string, error)

	// Verify reports whether code matches the live challenge for the phone
	// and the challenge is still inside its validity window. Verification
	// does not consume the challenge.
	Verify(ctx context.Context, phone, code string) (bool, error)
}
