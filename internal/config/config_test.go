package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "EUR", cfg.Shop.Currency)
	assert.Equal(t, "NL", cfg.Shop.OriginCountry)
	assert.Equal(t, 15*time.Second, cfg.Checkout.ProviderTimeout)
	assert.True(t, cfg.Checkout.RepriceFromCatalog)
	assert.Equal(t, int64(99_999_999), cfg.Checkout.MaxAmountMinor)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHOP_CURRENCY", "usd")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Shop.Currency)
	assert.Equal(t, 3*time.Second, cfg.Checkout.ProviderTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate_ProductionRequiresStripeKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestValidate_OriginCountry(t *testing.T) {
	t.Setenv("SHOP_ORIGIN_COUNTRY", "NLD")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOP_ORIGIN_COUNTRY")
}

func TestGetEnvAsSlice_TrimsEntries(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES_TEST", " 10.0.0.1 , ,10.0.0.2")

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, getEnvAsSlice("TRUSTED_PROXIES_TEST", nil))
	assert.Equal(t, []string{"x"}, getEnvAsSlice("UNSET_SLICE_TEST", []string{"x"}))
}

func TestParseEnv_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("PORT_TEST", "eighty")
	t.Setenv("TIMEOUT_TEST", "90s")

	assert.Equal(t, 8080, getEnvAsInt("PORT_TEST", 8080))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TIMEOUT_TEST", time.Second))
}
