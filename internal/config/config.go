// internal/config/config.go
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds the per-deployment launchpad settings. Protocol economics are
// global constants of the deployment; they are not mutable per launch.
type Config struct {
	// Protocol economics
	FlatFee              uint64 `mapstructure:"flat_fee"`
	MinDeposit           uint64 `mapstructure:"min_deposit"`
	TradeFeeBps          uint64 `mapstructure:"trade_fee_bps"`
	GraduationThreshold  uint64 `mapstructure:"graduation_threshold"`
	MaxTradeFractionBps  uint64 `mapstructure:"max_trade_fraction_bps"`
	TokenSupply          uint64 `mapstructure:"token_supply"`
	VirtualTokenReserves uint64 `mapstructure:"virtual_token_reserves"`
	VirtualAssetReserves uint64 `mapstructure:"virtual_asset_reserves"`
	FeeRecipient         string `mapstructure:"fee_recipient"`
	ReserveAsset         string `mapstructure:"reserve_asset"`

	// Infrastructure
	PostgresURL    string `mapstructure:"postgres_url"`
	ListenAddr     string `mapstructure:"listen_addr"`
	EventBufferLen int    `mapstructure:"event_buffer_len"`
	DebugLogging   bool   `mapstructure:"debug_logging"`
	LogFile        string `mapstructure:"log_file"`
}

const (
	DefaultFlatFee              = 1_000
	DefaultMinDeposit           = 100
	DefaultTradeFeeBps          = 100 // 1%
	DefaultGraduationThreshold  = 42_000
	DefaultMaxTradeFractionBps  = 9_000 // one trade may extract at most 90% of a reserve
	// Supply equals the virtual token seed so pool custody covers any
	// curve outflow regardless of where the graduation threshold sits.
	DefaultTokenSupply          = 1_073_000_000
	DefaultVirtualTokenReserves = 1_073_000_000
	DefaultVirtualAssetReserves = 1_000
	DefaultListenAddr           = ":8080"
	DefaultEventBufferLen       = 256
)

// Load reads the configuration file at path with LAUNCHPAD_* env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"flat_fee":               DefaultFlatFee,
		"min_deposit":            DefaultMinDeposit,
		"trade_fee_bps":          DefaultTradeFeeBps,
		"graduation_threshold":   DefaultGraduationThreshold,
		"max_trade_fraction_bps": DefaultMaxTradeFractionBps,
		"token_supply":           DefaultTokenSupply,
		"virtual_token_reserves": DefaultVirtualTokenReserves,
		"virtual_asset_reserves": DefaultVirtualAssetReserves,
		"reserve_asset":          "VIRT",
		"listen_addr":            DefaultListenAddr,
		"event_buffer_len":       DefaultEventBufferLen,
		"log_file":               "launchpad.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("LAUNCHPAD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, Validate(&cfg)
}

// Validate checks a configuration for internal consistency.
func Validate(cfg *Config) error {
	if cfg.FeeRecipient == "" {
		return errors.New("missing fee_recipient in configuration")
	}
	if cfg.ReserveAsset == "" {
		return errors.New("missing reserve_asset in configuration")
	}
	if cfg.GraduationThreshold == 0 {
		return errors.New("graduation_threshold must be positive")
	}
	if cfg.TokenSupply == 0 {
		return errors.New("token_supply must be positive")
	}
	if cfg.VirtualTokenReserves == 0 || cfg.VirtualAssetReserves == 0 {
		return errors.New("virtual seed reserves must be positive")
	}
	if cfg.VirtualTokenReserves > cfg.TokenSupply {
		return errors.New("virtual_token_reserves cannot exceed token_supply")
	}
	if cfg.TradeFeeBps >= 10_000 {
		return errors.New("trade_fee_bps out of range")
	}
	if cfg.MaxTradeFractionBps > 10_000 {
		return errors.New("max_trade_fraction_bps out of range")
	}
	if cfg.GraduationThreshold <= cfg.VirtualAssetReserves {
		return errors.New("graduation_threshold must exceed virtual_asset_reserves")
	}
	if cfg.EventBufferLen <= 0 {
		return errors.New("event_buffer_len must be positive")
	}
	return nil
}
