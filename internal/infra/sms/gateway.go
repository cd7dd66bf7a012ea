package sms

import (
	"log/slog"
	"slices"
	"strings"

	"securelogin/config"
	"securelogin/internal/domain/service"
	"securelogin/internal/errors"

	"go.uber.org/fx"
)

// Vendor names accepted in configuration and produced by routing.
const (
	VendorTwilio    = "twilio"
	VendorUniSMS    = "uni-sms"
	VendorTencent   = "tencent"
	VendorSimulator = "simulator"
)

// SenderFactory lets an embedding application override vendor routing for
// individual phones. It is set once at startup; returning nil falls through
// to the built-in routing rules.
type SenderFactory func(cfg *config.SMSConfig, phone string) service.SMSSender

// Params defines the required parameters
type Params struct {
	fx.In

	Config        *config.Config
	Logger        *slog.Logger
	OTPStore      service.OTPStore
	SenderFactory SenderFactory `optional:"true"`
}

// gateway implements service.SMSGateway. Senders are built once at startup
// from whichever vendor credentials are configured.
type gateway struct {
	cfg     *config.SMSConfig
	senders map[string]service.SMSSender
	factory SenderFactory
}

// NewGateway builds the vendor senders from configuration and wires them
// behind the routing rules.
func NewGateway(params Params) (service.SMSGateway, error) {
	cfg := params.Config.SMS
	senders := map[string]service.SMSSender{
		VendorSimulator: newOTPSender(params.OTPStore, &simulatorDeliverer{logger: params.Logger}, cfg.Timeout, cfg.MaxRetries),
	}

	if cfg.Twilio != nil {
		senders[VendorTwilio] = newTwilioSender(cfg.Twilio, cfg.Timeout)
	}
	if cfg.UniSMS != nil {
		deliverer := newUniSMSDeliverer(cfg.UniSMS, params.Config.OTP.TTL)
		senders[VendorUniSMS] = newOTPSender(params.OTPStore, deliverer, cfg.Timeout, cfg.MaxRetries)
	}
	if cfg.Tencent != nil {
		deliverer, err := newTencentDeliverer(cfg.Tencent, params.Config.OTP.TTL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		senders[VendorTencent] = newOTPSender(params.OTPStore, deliverer, cfg.Timeout, cfg.MaxRetries)
	}

	defaultVendor := cfg.DefaultVendor
	if defaultVendor == "" {
		defaultVendor = VendorSimulator
	}
	if _, ok := senders[defaultVendor]; !ok {
		return nil, errors.Errorf("default sms vendor %q has no credentials configured", defaultVendor)
	}

	return &gateway{cfg: cfg, senders: senders, factory: params.SenderFactory}, nil
}

// NewGatewayWithSenders builds a gateway over prebuilt senders.
func NewGatewayWithSenders(cfg *config.SMSConfig, senders map[string]service.SMSSender) service.SMSGateway {
	return &gateway{cfg: cfg, senders: senders}
}

// NewGatewayWithFactory builds a gateway over prebuilt senders with a
// routing override.
func NewGatewayWithFactory(cfg *config.SMSConfig, senders map[string]service.SMSSender, factory SenderFactory) service.SMSGateway {
	return &gateway{cfg: cfg, senders: senders, factory: factory}
}

// SenderFor selects the vendor for a phone number. Vendor test phones pin to
// twilio so verification flows can run against the vendor sandbox; otherwise
// routing follows the country prefix with the configured default as
// fallback.
func (g *gateway) SenderFor(phone string) (service.SMSSender, error) {
	if g.factory != nil {
		if sender := g.factory(g.cfg, phone); sender != nil {
			return sender, nil
		}
	}

	vendor := g.cfg.DefaultVendor
	if vendor == "" {
		vendor = VendorSimulator
	}

	switch {
	case slices.Contains(g.cfg.TestingPhones, phone):
		vendor = VendorTwilio
	case strings.HasPrefix(phone, "+86"):
		vendor = VendorUniSMS
	case strings.HasPrefix(phone, "+1"):
		vendor = VendorTencent
	}

	sender, ok := g.senders[vendor]
	if !ok {
		return nil, errors.Errorf("sms vendor %q has no credentials configured", vendor)
	}

	return sender, nil
}
