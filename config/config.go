package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/client"
	"aptos-swap/pkg/types"
)

const (
	DefaultPoolModule   = "0xde5f3cb556eb2923d4aed5a427d2992fa31d9bcf9454472533b2f12cec8187af::pool"
	DefaultFaucetModule = catalog.FaucetAddress + "::faucet"
)

// Config holds the application configuration
type Config struct {
	NodeURL      string
	PoolModule   string
	FaucetModule string
	PrivateKey   string

	// FeeBps is the haircut applied to the quoted output to form the
	// minimum output sent with a swap
	FeeBps               uint32
	AllowUnprotectedSwap bool

	FinalityTimeout time.Duration
	StatusDisplay   time.Duration
	PollInterval    time.Duration
	RateLimit       float64
	MaxGasAmount    uint64
	TxTTL           time.Duration

	LogLevel   string
	ListenAddr string

	Assets []types.Asset
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".aptos-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("APTOS_SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node_url", client.DefaultNodeURL)
	v.SetDefault("pool_module", DefaultPoolModule)
	v.SetDefault("faucet_module", DefaultFaucetModule)
	v.SetDefault("fee_bps", 50)
	v.SetDefault("allow_unprotected_swap", false)
	v.SetDefault("finality_timeout", "20s")
	v.SetDefault("status_display", "1.5s")
	v.SetDefault("poll_interval", "500ms")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("max_gas_amount", 20000)
	v.SetDefault("tx_ttl", "10m")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8787")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		NodeURL:              v.GetString("node_url"),
		PoolModule:           strings.TrimSpace(v.GetString("pool_module")),
		FaucetModule:         strings.TrimSpace(v.GetString("faucet_module")),
		PrivateKey:           v.GetString("private_key"),
		AllowUnprotectedSwap: v.GetBool("allow_unprotected_swap"),
		FinalityTimeout:      v.GetDuration("finality_timeout"),
		StatusDisplay:        v.GetDuration("status_display"),
		PollInterval:         v.GetDuration("poll_interval"),
		RateLimit:            v.GetFloat64("rate_limit"),
		MaxGasAmount:         v.GetUint64("max_gas_amount"),
		TxTTL:                v.GetDuration("tx_ttl"),
		LogLevel:             v.GetString("log_level"),
		ListenAddr:           v.GetString("listen_addr"),
	}

	fee := v.GetInt("fee_bps")
	if fee < 0 || fee > 10000 {
		return nil, fmt.Errorf("fee_bps must be between 0 and 10000, got %d", fee)
	}
	cfg.FeeBps = uint32(fee)

	if strings.Count(cfg.PoolModule, "::") != 1 {
		return nil, fmt.Errorf("pool_module must look like <address>::<module>, got %q", cfg.PoolModule)
	}
	if strings.Count(cfg.FaucetModule, "::") != 1 {
		return nil, fmt.Errorf("faucet_module must look like <address>::<module>, got %q", cfg.FaucetModule)
	}
	if cfg.FinalityTimeout <= 0 {
		return nil, fmt.Errorf("finality_timeout must be positive")
	}

	if err := v.UnmarshalKey("assets", &cfg.Assets); err != nil {
		return nil, fmt.Errorf("invalid assets list: %w", err)
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = catalog.DefaultAssets
	}

	return cfg, nil
}

// Catalog builds the asset catalog from the configured assets
func (c *Config) Catalog() (*catalog.Catalog, error) {
	return catalog.New(c.Assets)
}
