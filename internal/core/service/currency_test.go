package service

import (
	"context"
	"testing"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyService_CachesList(t *testing.T) {
	psp := &MockPSPClient{}
	cache := NewMockCache()
	s := NewCurrencyService(psp, cache, testLogger())

	assert.True(t, s.Supported(context.Background(), "ideal", "EUR"))
	assert.True(t, s.Supported(context.Background(), "ideal", "EUR"))

	// Second lookup is served from the cache.
	assert.Equal(t, 1, psp.GetCalls("GetCurrencyList"))
	assert.Contains(t, cache.PutKeys, currencyCacheKey)
}

func TestCurrencyService_FallsBackToEUR(t *testing.T) {
	psp := &MockPSPClient{}
	psp.GetCurrencyListFn = func(ctx context.Context) (*domain.CurrencyList, error) {
		return nil, assert.AnError
	}
	s := NewCurrencyService(psp, NewMockCache(), testLogger())

	assert.True(t, s.Supported(context.Background(), "ideal", "EUR"))
	assert.False(t, s.Supported(context.Background(), "ideal", "USD"))
}

func TestCurrencyService_UnknownMethodNotSupported(t *testing.T) {
	psp := &MockPSPClient{}
	psp.GetCurrencyListFn = func(ctx context.Context) (*domain.CurrencyList, error) {
		return &domain.CurrencyList{
			PaymentMethods: map[string]domain.MethodCurrencies{
				"ideal": {Currencies: []string{"EUR"}},
			},
		}, nil
	}
	s := NewCurrencyService(psp, NewMockCache(), testLogger())

	assert.False(t, s.Supported(context.Background(), "paypal", "EUR"))
}

func TestCurrencyService_CacheErrorTreatedAsMiss(t *testing.T) {
	psp := &MockPSPClient{}
	cache := NewMockCache()
	cache.GetFn = func(ctx context.Context, key string) ([]byte, bool, error) {
		return nil, false, assert.AnError
	}
	s := NewCurrencyService(psp, cache, testLogger())

	assert.True(t, s.Supported(context.Background(), "ideal", "EUR"))
	assert.Equal(t, 1, psp.GetCalls("GetCurrencyList"))
}

func TestCurrencyService_GarbageInCacheRefetches(t *testing.T) {
	psp := &MockPSPClient{}
	cache := NewMockCache()
	require.NoError(t, cache.Put(context.Background(), currencyCacheKey, []byte("{not json"), currencyCacheTTL))
	s := NewCurrencyService(psp, cache, testLogger())

	assert.True(t, s.Supported(context.Background(), "ideal", "EUR"))
	assert.Equal(t, 1, psp.GetCalls("GetCurrencyList"))
}
