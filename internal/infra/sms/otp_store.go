// Package sms implements one-time code issuance and the vendor gateway that
// delivers codes to phones.
package sms

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"securelogin/config"
	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/repository"
	"securelogin/internal/domain/service"
	"securelogin/internal/errors"
)

// otpStore implements service.OTPStore on top of the challenge repository.
type otpStore struct {
	repo   repository.OTPRepository
	digits int
	ttl    time.Duration
	now    func() time.Time
}

// NewOTPStore is the constructor for otpStore.
func NewOTPStore(repo repository.OTPRepository, cfg *config.Config) service.OTPStore {
	return &otpStore{
		repo:   repo,
		digits: cfg.OTP.Digits,
		ttl:    cfg.OTP.TTL,
		now:    time.Now,
	}
}

// Issue generates a fixed-length decimal code and persists it, replacing any
// previous challenge for the phone.
func (s *otpStore) Issue(ctx context.Context, phone string) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", err
	}

	challenge := &entity.OTPChallenge{
		Phone:     phone,
		Code:      code,
		CreatedAt: s.now(),
	}
	if err := s.repo.Upsert(ctx, challenge); err != nil {
		return "", errors.Wrap(err, "failed to persist otp challenge")
	}

	return code, nil
}

// Verify reports whether code matches the live challenge for the phone and
// the challenge is still inside its validity window. The challenge is not
// consumed; it lapses by expiry or by reissue.
func (s *otpStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	challenge, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return false, nil
		}

		return false, errors.Wrap(err, "failed to load otp challenge")
	}

	if s.now().Sub(challenge.CreatedAt) > s.ttl {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) == 1, nil
}

// generateCode draws a uniform number in [0, 10^digits) from crypto/rand
// and left-pads it to the configured length.
func (s *otpStore) generateCode() (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate otp code")
	}

	return fmt.Sprintf("%0*d", s.digits, n), nil
}
