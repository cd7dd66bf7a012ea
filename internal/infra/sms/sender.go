package sms

import (
	"context"
	"time"

	"securelogin/internal/domain/service"

	"github.com/sethvargo/go-retry"
)

const deliveryRetryBase = 500 * time.Millisecond

// codeDeliverer is the vendor-specific delivery call: push an already issued
// code to the phone. Vendors that hold the code on their own side (Twilio
// Verify) implement service.SMSSender directly instead.
type codeDeliverer interface {
	Deliver(ctx context.Context, phone, code string) error
}

// otpSender implements service.SMSSender for vendors that only deliver
// messages: the code is issued and verified locally through the OTPStore.
type otpSender struct {
	store      service.OTPStore
	deliverer  codeDeliverer
	timeout    time.Duration
	maxRetries uint64
}

func newOTPSender(store service.OTPStore, deliverer codeDeliverer, timeout time.Duration, maxRetries uint64) *otpSender {
	return &otpSender{
		store:      store,
		deliverer:  deliverer,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Send issues a fresh code for the phone and pushes it through the vendor,
// retrying transient delivery failures with exponential backoff. The code is
// issued once; retries redeliver the same code.
func (s *otpSender) Send(ctx context.Context, phone string) error {
	code, err := s.store.Issue(ctx, phone)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(deliveryRetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.deliverer.Deliver(callCtx, phone, code); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
}

// Verify checks the code against the local challenge store.
func (s *otpSender) Verify(ctx context.Context, phone, code string) (bool, error) {
	return s.store.Verify(ctx, phone, code)
}
