package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

const (
	currencyCacheKey = "psp:currency-list"
	currencyCacheTTL = 6 * time.Minute
)

// CurrencyService answers "does the PSP accept this currency for this
// method" from a short-lived cached copy of the PSP's currency list. When
// neither the cache nor the PSP can produce a list, checkout keeps working
// on a EUR-only assumption instead of failing.
type CurrencyService struct {
	client ports.PSPClient
	cache  ports.Cache
	logger *slog.Logger
}

func NewCurrencyService(client ports.PSPClient, cache ports.Cache, logger *slog.Logger) *CurrencyService {
	return &CurrencyService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

func (s *CurrencyService) Supported(ctx context.Context, method, currency string) bool {
	list, err := s.list(ctx)
	if err != nil {
		s.logger.Warn("currency list unavailable, assuming EUR only", "method", method, "error", err)
		return currency == "EUR"
	}
	return list.Supports(method, currency)
}

func (s *CurrencyService) list(ctx context.Context) (*domain.CurrencyList, error) {
	if raw, found, err := s.cache.Get(ctx, currencyCacheKey); err == nil && found {
		var cached domain.CurrencyList
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding unparsable cached currency list")
	}

	list, err := s.client.GetCurrencyList(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(list); err == nil {
		if err := s.cache.Put(ctx, currencyCacheKey, raw, currencyCacheTTL); err != nil {
			s.logger.Warn("failed to cache currency list", "error", err)
		}
	}

	return list, nil
}
