package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// MarketplaceConfig holds marketplace policy that can be changed without a restart.
type MarketplaceConfig struct {
	LinkTokenTTL      time.Duration `mapstructure:"linkTokenTTL"`
	NotifyParallelism int           `mapstructure:"notifyParallelism"`
	ReservationRate   float64       `mapstructure:"reservationRate"`
	ReservationBurst  int           `mapstructure:"reservationBurst"`
	Currencies        []string      `mapstructure:"currencies"`
	DefaultCities     DefaultCities `mapstructure:"defaultCities"`
}

type DefaultCities struct {
	Departure string `mapstructure:"departure"`
	Arrival   string `mapstructure:"arrival"`
}

func DefaultMarketplaceConfig() MarketplaceConfig {
	return MarketplaceConfig{
		LinkTokenTTL:      12 * time.Hour,
		NotifyParallelism: 8,
		ReservationRate:   0.2,
		ReservationBurst:  5,
		Currencies:        []string{"JPY", "UZS", "USD"},
		DefaultCities: DefaultCities{
			Departure: "Tashkent",
			Arrival:   "Tokyo",
		},
	}
}

// AcceptsCurrency reports whether code is one of the configured listing currencies.
func (c MarketplaceConfig) AcceptsCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, allowed := range c.Currencies {
		if strings.EqualFold(allowed, code) {
			return true
		}
	}
	return false
}

type MarketplaceConfigHolder struct {
	current atomic.Value // holds MarketplaceConfig
}

// NewStaticMarketplaceConfigHolder wraps a fixed config, mainly for tests.
func NewStaticMarketplaceConfigHolder(cfg MarketplaceConfig) *MarketplaceConfigHolder {
	holder := &MarketplaceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewMarketplaceConfigHolder(log *zap.Logger) (*MarketplaceConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.marketplace")

	v := viper.New()

	v.SetConfigName("marketplace")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/luggagehub/config")
	v.AddConfigPath("/etc/luggagehub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LUGGAGEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMarketplaceConfig()
	v.SetDefault("marketplace.linkTokenTTL", defaults.LinkTokenTTL)
	v.SetDefault("marketplace.notifyParallelism", defaults.NotifyParallelism)
	v.SetDefault("marketplace.reservationRate", defaults.ReservationRate)
	v.SetDefault("marketplace.reservationBurst", defaults.ReservationBurst)
	v.SetDefault("marketplace.currencies", defaults.Currencies)
	v.SetDefault("marketplace.defaultCities.departure", defaults.DefaultCities.Departure)
	v.SetDefault("marketplace.defaultCities.arrival", defaults.DefaultCities.Arrival)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg MarketplaceConfig
	if err := v.UnmarshalKey("marketplace", &cfg); err != nil {
		return nil, err
	}
	if err := validateMarketplaceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MarketplaceConfigHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated MarketplaceConfig
			if err := v.UnmarshalKey("marketplace", &updated); err != nil {
				log.Warn("marketplace config reload failed", zap.Error(err))
				return
			}
			if err := validateMarketplaceConfig(updated); err != nil {
				log.Warn("invalid marketplace config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("marketplace config reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *MarketplaceConfigHolder) Get() MarketplaceConfig {
	if h == nil {
		return DefaultMarketplaceConfig()
	}
	cfg, ok := h.current.Load().(MarketplaceConfig)
	if !ok {
		return DefaultMarketplaceConfig()
	}
	return cfg
}

func validateMarketplaceConfig(cfg MarketplaceConfig) error {
	if cfg.LinkTokenTTL <= 0 {
		return errors.New("marketplace.linkTokenTTL must be positive")
	}
	if cfg.NotifyParallelism <= 0 {
		return errors.New("marketplace.notifyParallelism must be positive")
	}
	if cfg.ReservationRate <= 0 || cfg.ReservationBurst <= 0 {
		return errors.New("marketplace reservation rate limit must be positive")
	}
	if len(cfg.Currencies) == 0 {
		return errors.New("marketplace.currencies cannot be empty")
	}
	return nil
}
