package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// QuotingConfig carries tunable quoting defaults that operators may adjust
// without a redeploy.
type QuotingConfig struct {
	DefaultTaxPercent    float64       `mapstructure:"defaultTaxPercent"`
	QuoteValidityDays    int           `mapstructure:"quoteValidityDays"`
	ExpirySweepInterval  time.Duration `mapstructure:"expirySweepInterval"`
	ExpirySweepBatchSize int           `mapstructure:"expirySweepBatchSize"`
}

func DefaultQuotingConfig() QuotingConfig {
	return QuotingConfig{
		DefaultTaxPercent:    0,
		QuoteValidityDays:    30,
		ExpirySweepInterval:  time.Hour,
		ExpirySweepBatchSize: 500,
	}
}

type QuotingConfigHolder struct {
	current atomic.Value // holds QuotingConfig
}

func NewQuotingConfigHolder() (*QuotingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("quoting")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/dealdesk/config") // Volume-mounted config
	v.AddConfigPath("/etc/dealdesk")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("DEALDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultQuotingConfig()
		v.SetDefault("quoting.defaultTaxPercent", defaults.DefaultTaxPercent)
		v.SetDefault("quoting.quoteValidityDays", defaults.QuoteValidityDays)
		v.SetDefault("quoting.expirySweepInterval", defaults.ExpirySweepInterval)
		v.SetDefault("quoting.expirySweepBatchSize", defaults.ExpirySweepBatchSize)
	}

	var cfg QuotingConfig
	if err := v.UnmarshalKey("quoting", &cfg); err != nil {
		return nil, err
	}
	if err := validateQuotingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &QuotingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated QuotingConfig
		if err := v.UnmarshalKey("quoting", &updated); err != nil {
			log.Printf("[quoting-config] reload failed: %v", err)
			return
		}
		if err := validateQuotingConfig(updated); err != nil {
			log.Printf("[quoting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[quoting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *QuotingConfigHolder) Get() QuotingConfig {
	return h.current.Load().(QuotingConfig)
}

func validateQuotingConfig(cfg QuotingConfig) error {
	if cfg.DefaultTaxPercent < 0 || cfg.DefaultTaxPercent > 100 {
		return errors.New("defaultTaxPercent must be within [0,100]")
	}
	if cfg.QuoteValidityDays <= 0 {
		return errors.New("quoteValidityDays must be positive")
	}
	if cfg.ExpirySweepInterval <= 0 {
		return errors.New("expirySweepInterval must be positive")
	}
	if cfg.ExpirySweepBatchSize <= 0 {
		return errors.New("expirySweepBatchSize must be positive")
	}
	return nil
}
