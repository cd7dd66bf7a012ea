package entity

import "time"

// OTPChallenge is the single live one-time code for a phone number. Issuing
// a new code overwrites the previous challenge; there is no
// multi-outstanding-challenge model.
type OTPChallenge struct {
	Phone     string    // E.164 phone number, the challenge key.
	Code      string    // Decimal code of configured length.
	CreatedAt time.Time // Start of the validity window.
}
