package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageRedis  StorageDriver = "redis"
)

type Config struct {
	ModulerName string `mapstructure:"MODULER_NAME"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// 儲存
	StorageDriver StorageDriver `mapstructure:"STORAGE_DRIVER"`
	StoragePrefix string        `mapstructure:"STORAGE_PREFIX"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RedisPoolSize int           `mapstructure:"REDIS_POOL_SIZE"`

	// 訂單封存，DbHost 為空則不啟用
	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	// 事件與 log 輸出，KafkaBrokers 為空則不啟用
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaEventTopic string `mapstructure:"KAFKA_EVENT_TOPIC"`
	KafkaLogTopic   string `mapstructure:"KAFKA_LOG_TOPIC"`

	// 結帳
	CheckoutMode      service.CheckoutMode `mapstructure:"CHECKOUT_MODE"`
	CheckoutAPIURL    string               `mapstructure:"CHECKOUT_API_URL"`
	CheckoutTimeout   time.Duration        `mapstructure:"CHECKOUT_TIMEOUT"`
	CheckoutRateLimit int                  `mapstructure:"CHECKOUT_RATE_LIMIT"`

	// 商品目錄 yaml，空值使用內建清單
	CatalogFile string `mapstructure:"CATALOG_FILE"`

	// 定價
	CouponCode            string `mapstructure:"COUPON_CODE"`
	CouponRate            string `mapstructure:"COUPON_RATE"`
	TaxEnabled            bool   `mapstructure:"TAX_ENABLED"`
	TaxRate               string `mapstructure:"TAX_RATE"`
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	FlatShippingFee       string `mapstructure:"FLAT_SHIPPING_FEE"`
	CurrencySymbol        string `mapstructure:"CURRENCY_SYMBOL"`
}

func setDefaults(v *viper.Viper) {
	d := pricing.DefaultPolicy()
	v.SetDefault("MODULER_NAME", "storefront")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("STORAGE_DRIVER", string(StorageMemory))
	v.SetDefault("STORAGE_PREFIX", "storefront")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("POSTGRES_DB", "storefront")
	v.SetDefault("POSTGRES_HOST", "")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_EVENT_TOPIC", "storefront-events")
	v.SetDefault("KAFKA_LOG_TOPIC", "")
	v.SetDefault("CHECKOUT_MODE", string(service.CheckoutModeLocal))
	v.SetDefault("CHECKOUT_API_URL", "")
	v.SetDefault("CHECKOUT_TIMEOUT", 15*time.Second)
	v.SetDefault("CHECKOUT_RATE_LIMIT", 30)
	v.SetDefault("CATALOG_FILE", "")
	v.SetDefault("COUPON_CODE", d.CouponCode)
	v.SetDefault("COUPON_RATE", d.CouponRate.String())
	v.SetDefault("TAX_ENABLED", d.TaxEnabled)
	v.SetDefault("TAX_RATE", d.TaxRate.String())
	v.SetDefault("FREE_SHIPPING_THRESHOLD", d.FreeShippingThreshold.StringFixed(2))
	v.SetDefault("FLAT_SHIPPING_FEE", d.FlatShippingFee.StringFixed(2))
	v.SetDefault("CURRENCY_SYMBOL", d.CurrencySymbol)
}

// KafkaBrokerList 逗號分隔
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PricingPolicy 金額字串轉 decimal
func (c *Config) PricingPolicy() (pricing.Policy, error) {
	p := pricing.Policy{
		CouponCode:     c.CouponCode,
		TaxEnabled:     c.TaxEnabled,
		CurrencySymbol: c.CurrencySymbol,
	}
	var err error
	if p.CouponRate, err = parseDecimal("COUPON_RATE", c.CouponRate); err != nil {
		return pricing.Policy{}, err
	}
	if p.TaxRate, err = parseDecimal("TAX_RATE", c.TaxRate); err != nil {
		return pricing.Policy{}, err
	}
	if p.FreeShippingThreshold, err = parseDecimal("FREE_SHIPPING_THRESHOLD", c.FreeShippingThreshold); err != nil {
		return pricing.Policy{}, err
	}
	if p.FlatShippingFee, err = parseDecimal("FLAT_SHIPPING_FEE", c.FlatShippingFee); err != nil {
		return pricing.Policy{}, err
	}
	return p, nil
}

func (c *Config) Validate() error {
	if !c.CheckoutMode.Valid() {
		return fmt.Errorf("unknown CHECKOUT_MODE %q", c.CheckoutMode)
	}
	if c.CheckoutMode == service.CheckoutModeRemote && c.CheckoutAPIURL == "" {
		return errors.New("CHECKOUT_API_URL is required in remote checkout mode")
	}
	switch c.StorageDriver {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	_, err := c.PricingPolicy()
	return err
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if v.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: negative", name, s)
	}
	return v, nil
}

/*
Loader 負責讀取與熱更新
init : 設置 viper watch 與 onConfigChange
read : 一般讀取，需要使用讀寫鎖
*/
type Loader struct {
	v        *viper.Viper
	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)
	onError  []func(error)
}

// NewLoader path 為 .env 檔路徑，檔案不存在時只讀環境變數
func NewLoader(path string) (*Loader, error) {
	return newLoader(path, true)
}

func newLoader(path string, watch bool) (*Loader, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	hasFile := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			hasFile = true
		}
	}

	l := &Loader{v: v}
	cf, err := l.load()
	if err != nil {
		return nil, err
	}
	l.config = cf

	if hasFile && watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			l.reload()
		})
		v.WatchConfig()
	}
	return l, nil
}

// reload 驗證失敗時保留舊設定，並通知 OnReloadError
func (l *Loader) reload() {
	cf, err := l.load()
	if err != nil {
		l.mu.RLock()
		handlers := append([]func(error){}, l.onError...)
		l.mu.RUnlock()
		if len(handlers) == 0 {
			log.Printf("config reload rejected, keep previous config: %v", err)
		}
		for _, h := range handlers {
			h(err)
		}
		return
	}

	l.mu.Lock()
	l.config = cf
	handlers := append([]func(*Config){}, l.onChange...)
	l.mu.Unlock()
	for _, h := range handlers {
		h(cf)
	}
}

func (l *Loader) load() (*Config, error) {
	cf := &Config{}
	if err := l.v.Unmarshal(cf); err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// OnChange 設定檔變更且驗證通過後呼叫
func (l *Loader) OnChange(h func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, h)
}

// OnReloadError 設定檔變更但驗證失敗時呼叫
func (l *Loader) OnReloadError(h func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = append(l.onError, h)
}
