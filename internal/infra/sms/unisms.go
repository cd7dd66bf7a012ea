package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"securelogin/config"
	"securelogin/internal/errors"
)

const (
	uniSMSEndpoint          = "https://uni.apistd.com"
	uniSMSDefaultTemplateID = "pub_verif_login"
)

// uniSMSDeliverer pushes login codes through the Uni-SMS message API.
// Uni-SMS has no official Go SDK; the API is a single JSON POST.
type uniSMSDeliverer struct {
	httpClient *http.Client
	cfg        *config.UniSMSConfig
	endpoint   string
	ttlMinutes int
}

func newUniSMSDeliverer(cfg *config.UniSMSConfig, otpTTL time.Duration) *uniSMSDeliverer {
	return &uniSMSDeliverer{
		httpClient: &http.Client{},
		cfg:        cfg,
		endpoint:   uniSMSEndpoint,
		ttlMinutes: int(otpTTL.Minutes()),
	}
}

type uniSMSRequest struct {
	To           string         `json:"to"`
	Signature    string         `json:"signature"`
	TemplateID   string         `json:"templateId"`
	TemplateData map[string]any `json:"templateData"`
}

type uniSMSResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Deliver sends the code to the phone through the Uni-SMS template message.
func (d *uniSMSDeliverer) Deliver(ctx context.Context, phone, code string) error {
	templateID := d.cfg.TemplateID
	if templateID == "" {
		templateID = uniSMSDefaultTemplateID
	}

	payload, err := json.Marshal(uniSMSRequest{
		To:         phone,
		Signature:  d.cfg.Signature,
		TemplateID: templateID,
		TemplateData: map[string]any{
			"code": code,
			"ttl":  d.ttlMinutes,
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode uni-sms request")
	}

	callURL := d.endpoint + "/?action=sms.message.send&accessKeyId=" + url.QueryEscape(d.cfg.AccessKeyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build uni-sms request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "uni-sms call failed")
	}
	defer resp.Body.Close()

	var result uniSMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.Wrap(err, "failed to decode uni-sms response")
	}

	// Uni-SMS reports success as code "0" regardless of HTTP status.
	if result.Code != "0" {
		return errors.Errorf("uni-sms rejected send: %s (code %s)", result.Message, result.Code)
	}

	return nil
}
