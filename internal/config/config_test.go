package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoaderDefaults(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)
	cf := l.Config()

	assert.Equal(t, service.CheckoutModeLocal, cf.CheckoutMode)
	assert.Equal(t, StorageMemory, cf.StorageDriver)
	assert.Equal(t, 15*time.Second, cf.CheckoutTimeout)

	p, err := cf.PricingPolicy()
	require.NoError(t, err)
	assert.Equal(t, "SALE25", p.CouponCode)
	assert.True(t, p.TaxEnabled)
	assert.Equal(t, "0.07", p.TaxRate.String())
	assert.Equal(t, "4.99", p.FlatShippingFee.StringFixed(2))
	assert.Equal(t, "50.00", p.FreeShippingThreshold.StringFixed(2))
}

func TestLoaderFromFile(t *testing.T) {
	path := writeEnv(t, `SERVER_PORT=9090
CHECKOUT_MODE=remote
CHECKOUT_API_URL=https://checkout.example.com
CHECKOUT_TIMEOUT=3s
TAX_ENABLED=false
FLAT_SHIPPING_FEE=5.99
CURRENCY_SYMBOL=£
KAFKA_BROKERS=localhost:9092, localhost:9093
`)
	l, err := NewLoader(path)
	require.NoError(t, err)
	cf := l.Config()

	assert.Equal(t, "9090", cf.ServerPort)
	assert.Equal(t, service.CheckoutModeRemote, cf.CheckoutMode)
	assert.Equal(t, "https://checkout.example.com", cf.CheckoutAPIURL)
	assert.Equal(t, 3*time.Second, cf.CheckoutTimeout)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cf.KafkaBrokerList())

	p, err := cf.PricingPolicy()
	require.NoError(t, err)
	assert.False(t, p.TaxEnabled)
	assert.Equal(t, "5.99", p.FlatShippingFee.String())
	assert.Equal(t, "£", p.CurrencySymbol)
}

func TestLoaderEnvOverridesFile(t *testing.T) {
	path := writeEnv(t, "SERVER_PORT=9090\n")
	t.Setenv("SERVER_PORT", "7070")

	l, err := NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", l.Config().ServerPort)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "remote without url", content: "CHECKOUT_MODE=remote\n"},
		{name: "unknown mode", content: "CHECKOUT_MODE=paypal\n"},
		{name: "unknown storage", content: "STORAGE_DRIVER=sqlite\n"},
		{name: "bad tax rate", content: "TAX_RATE=seven\n"},
		{name: "negative fee", content: "FLAT_SHIPPING_FEE=-1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader(writeEnv(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestReload(t *testing.T) {
	path := writeEnv(t, "TAX_RATE=0.07\nCOUPON_CODE=SALE25\n")
	// 不啟用 watch，由測試手動觸發 reload
	l, err := newLoader(path, false)
	require.NoError(t, err)

	var (
		changed []*Config
		errs    []error
	)
	l.OnChange(func(cf *Config) { changed = append(changed, cf) })
	l.OnReloadError(func(err error) { errs = append(errs, err) })

	// 不合法的設定不套用
	require.NoError(t, os.WriteFile(path, []byte("TAX_RATE=seven\nCOUPON_CODE=WELCOME10\n"), 0o600))
	require.NoError(t, l.v.ReadInConfig())
	l.reload()

	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "TAX_RATE")
	assert.Empty(t, changed)
	assert.Equal(t, "SALE25", l.Config().CouponCode)

	require.NoError(t, os.WriteFile(path, []byte("TAX_RATE=0.08\nCOUPON_CODE=WELCOME10\n"), 0o600))
	require.NoError(t, l.v.ReadInConfig())
	l.reload()

	assert.Len(t, errs, 1)
	require.Len(t, changed, 1)
	assert.Equal(t, "WELCOME10", changed[0].CouponCode)
	assert.Equal(t, "WELCOME10", l.Config().CouponCode)
}
