// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"securelogin/internal/domain/entity"
)

// ErrOTPNotFound is returned when no challenge exists for a phone number.
var ErrOTPNotFound = errors.New("otp challenge not found")

// OTPRepository persists the single live one-time code per phone number.
type OTPRepository interface {
	// Upsert stores the challenge for its phone, replacing any existing one.
	Upsert(ctx context.Context, challenge *entity.OTPChallenge) error

	// FindByPhone retrieves the current challenge for a phone number.
	FindByPhone(ctx context.Context, phone string) (*entity.OTPChallenge, error)
}
