package sms

import (
	"context"
	"strconv"
	"time"

	"securelogin/config"
	"securelogin/internal/errors"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tsms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

const (
	tencentEndpoint      = "sms.tencentcloudapi.com"
	tencentDefaultRegion = "ap-guangzhou"
	tencentStatusOK      = "Ok"
)

// tencentDeliverer pushes login codes through the Tencent Cloud SMS API.
type tencentDeliverer struct {
	client     *tsms.Client
	cfg        *config.TencentConfig
	ttlMinutes string
}

func newTencentDeliverer(cfg *config.TencentConfig, otpTTL time.Duration, timeout time.Duration) (*tencentDeliverer, error) {
	cred := common.NewCredential(cfg.SecretID, cfg.SecretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = tencentEndpoint
	cpf.HttpProfile.ReqTimeout = int(timeout / time.Second)

	region := cfg.Region
	if region == "" {
		region = tencentDefaultRegion
	}

	client, err := tsms.NewClient(cred, region, cpf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tencent sms client")
	}

	return &tencentDeliverer{
		client:     client,
		cfg:        cfg,
		ttlMinutes: strconv.Itoa(int(otpTTL.Minutes())),
	}, nil
}

// Deliver sends the code through the configured Tencent SMS template.
// Template parameters follow the template's order: app name, code, validity
// in minutes.
func (d *tencentDeliverer) Deliver(ctx context.Context, phone, code string) error {
	req := tsms.NewSendSmsRequest()
	req.PhoneNumberSet = common.StringPtrs([]string{phone})
	req.SmsSdkAppId = common.StringPtr(d.cfg.SDKAppID)
	req.TemplateId = common.StringPtr(d.cfg.TemplateID)
	req.TemplateParamSet = common.StringPtrs([]string{d.cfg.AppName, code, d.ttlMinutes})
	req.SenderId = common.StringPtr(d.cfg.SenderID)

	resp, err := d.client.SendSmsWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "tencent SendSms failed")
	}

	if resp.Response == nil || len(resp.Response.SendStatusSet) == 0 {
		return errors.New("tencent SendSms returned no send status")
	}

	status := resp.Response.SendStatusSet[0]
	if status.Code == nil || *status.Code != tencentStatusOK {
		return errors.Errorf("tencent SendSms rejected: %s: %s",
			stringValue(status.Code), stringValue(status.Message))
	}

	return nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
