package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PURCHASE_PRICE", "")
	t.Setenv("PAYPAL_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5", cfg.PurchasePrice.String())
	assert.Equal(t, "USD", cfg.PurchaseCurrency)
	assert.Equal(t, 15*time.Second, cfg.PayPalTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PURCHASE_PRICE", "7.49")
	t.Setenv("PAYPAL_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "7.49", cfg.PurchasePrice.StringFixed(2))
	assert.Equal(t, 3*time.Second, cfg.PayPalTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"price not a number", "PURCHASE_PRICE", "five"},
		{"price not positive", "PURCHASE_PRICE", "0"},
		{"timeout garbage", "PAYPAL_TIMEOUT", "soon"},
		{"timeout negative", "PAYPAL_TIMEOUT", "-1s"},
		{"rps garbage", "RATE_LIMIT_RPS", "fast"},
		{"smtp port garbage", "SMTP_PORT", "twenty-five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
