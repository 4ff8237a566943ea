package handlers

import (
	"log/slog"

	"github.com/nopayn/psp-bridge/internal/core/service"
)

// Handlers bundles the HTTP-facing side of the bridge: the webhook the PSP
// calls, the storefront checkout and return endpoints, and the host-system
// notification hooks.
type Handlers struct {
	reconciler *service.Reconciler
	checkout   *service.CheckoutService
	refund     *service.RefundService
	policy     *service.PolicyService

	// Shared secret the PSP echoes on webhook deliveries. Empty disables
	// the check.
	webhookSecret string

	logger *slog.Logger
}

func New(
	reconciler *service.Reconciler,
	checkout *service.CheckoutService,
	refund *service.RefundService,
	policy *service.PolicyService,
	webhookSecret string,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		reconciler:    reconciler,
		checkout:      checkout,
		refund:        refund,
		policy:        policy,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}
