package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

// Runtime setting keys. Per-method keys collapse the method identifier the
// same way the admin screens do: PSP_KLARNAPAYLATER_SHOW_FOR_IP.
const (
	SettingAPIKey        = "PSP_API_KEY"
	SettingCaptureManual = "PSP_CREDITCARD_CAPTURE_MANUAL"

	settingSuffixShowForIP     = "_SHOW_FOR_IP"
	settingSuffixCountryAccess = "_COUNTRY_ACCESS"
	settingSuffixLabel         = "_LABEL"
)

func methodSettingKey(method, suffix string) string {
	return "PSP_" + strings.ToUpper(strings.ReplaceAll(method, "-", "")) + suffix
}

// PolicyService evaluates the runtime, admin-editable side of method policy:
// IP and country allow-lists and the manual-capture toggle. The static
// capability flags live in domain.MethodPolicy.
type PolicyService struct {
	settings ports.SettingsStore
	logger   *slog.Logger
}

func NewPolicyService(settings ports.SettingsStore, logger *slog.Logger) *PolicyService {
	return &PolicyService{
		settings: settings,
		logger:   logger,
	}
}

// AllowIP checks the per-method IP allow-list. An unset list allows everyone.
func (s *PolicyService) AllowIP(ctx context.Context, method, ip string) bool {
	return s.inAllowList(ctx, methodSettingKey(method, settingSuffixShowForIP), ip)
}

// AllowCountry checks the per-method country allow-list against an ISO-2
// country code. An unset list allows every country.
func (s *PolicyService) AllowCountry(ctx context.Context, method, country string) bool {
	return s.inAllowList(ctx, methodSettingKey(method, settingSuffixCountryAccess), strings.ToUpper(country))
}

// ManualCaptureEnabled reports whether completed credit-card orders are
// captured on the payment-accepted transition instead of automatically.
func (s *PolicyService) ManualCaptureEnabled(ctx context.Context) bool {
	value, err := s.settings.Get(ctx, SettingCaptureManual)
	if err != nil {
		s.logger.Warn("failed to read manual capture setting", "error", err)
		return false
	}
	return value == "1"
}

// Label returns the admin-configured checkout label for a method, or the
// method identifier when none is set.
func (s *PolicyService) Label(ctx context.Context, method string) string {
	value, err := s.settings.Get(ctx, methodSettingKey(method, settingSuffixLabel))
	if err != nil || value == "" {
		return method
	}
	return value
}

// Setting reads a raw admin setting.
func (s *PolicyService) Setting(ctx context.Context, key string) (string, error) {
	return s.settings.Get(ctx, key)
}

// UpdateSetting writes an admin setting. Clearing the PSP credential is a
// configuration error, caught here rather than at transaction time.
func (s *PolicyService) UpdateSetting(ctx context.Context, key, value string) error {
	if key == SettingAPIKey && strings.TrimSpace(value) == "" {
		return domain.NewConfigurationError(SettingAPIKey)
	}
	return s.settings.Update(ctx, key, value)
}

func (s *PolicyService) inAllowList(ctx context.Context, key, candidate string) bool {
	value, err := s.settings.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read allow-list setting", "key", key, "error", err)
		return false
	}
	if strings.TrimSpace(value) == "" {
		return true
	}
	for _, item := range strings.Split(value, ",") {
		if strings.TrimSpace(item) == candidate {
			return true
		}
	}
	return false
}
