package sms

import (
	"context"
	"log/slog"
)

// simulatorDeliverer logs the code instead of sending it. It backs local
// development and environments with no vendor credentials configured.
type simulatorDeliverer struct {
	logger *slog.Logger
}

func (d *simulatorDeliverer) Deliver(ctx context.Context, phone, code string) error {
	d.logger.LogAttrs(ctx, slog.LevelInfo, "simulated SMS delivery",
		slog.String("phone", phone),
		slog.String("code", code),
	)

	return nil
}
