package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/ZeMiguelGomes/voucherd/internal/alchemy"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	AlchemyAPIKey        string
	VoucherContract      string
	StockContract        string
	StockTokenID         string
	StockAPIURL          string
	StockNetwork         string
	RateProviderURL      string
	ShopifyOrderPrefix   string
	NFTRequestTimeout    time.Duration
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
}

// defaultNetworks lists the chains the gateway serves out of the box.
var defaultNetworks = map[string]alchemy.Network{
	"1":     {ChainID: 1, Name: "eth-mainnet", Host: "eth-mainnet"},
	"5":     {ChainID: 5, Name: "eth-goerli", Host: "eth-goerli"},
	"137":   {ChainID: 137, Name: "polygon-mainnet", Host: "polygon-mainnet"},
	"80001": {ChainID: 80001, Name: "polygon-mumbai", Host: "polygon-mumbai"},
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AlchemyAPIKey:        k.String("ALCHEMY_API_KEY"),
		VoucherContract:      k.String("VOUCHER_CONTRACT_ADDRESS"),
		StockContract:        k.String("STOCK_CONTRACT_ADDRESS"),
		StockTokenID:         k.String("STOCK_TOKEN_ID"),
		StockAPIURL:          k.String("STOCK_API_URL"),
		StockNetwork:         valueOrDefault(k.String("STOCK_NETWORK"), "80001"),
		RateProviderURL:      k.String("RATE_PROVIDER_URL"),
		ShopifyOrderPrefix:   valueOrDefault(k.String("SHOPIFY_ORDER_PREFIX"), "shopify-"),
		NFTRequestTimeout:    parseDuration(k.String("NFT_REQUEST_TIMEOUT"), "15s"),
		RateLimitWindow:      parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMaxRequests: parseInt(k.String("RATE_LIMIT_MAX_REQUESTS"), 120),
	}

	if cfg.AlchemyAPIKey == "" {
		return nil, errors.New("ALCHEMY_API_KEY is required")
	}
	if cfg.VoucherContract == "" {
		return nil, errors.New("VOUCHER_CONTRACT_ADDRESS is required")
	}

	return cfg, nil
}

// AlchemyConfig assembles the NFT gateway configuration from the loaded
// environment, including the stock inventory collection when configured.
func (c *Config) AlchemyConfig() alchemy.Config {
	networks := make(map[string]alchemy.Network, len(defaultNetworks))
	for id, net := range defaultNetworks {
		networks[id] = net
	}
	stockNet, ok := networks[c.StockNetwork]
	if !ok {
		stockNet = networks["80001"]
	}
	return alchemy.Config{
		APIKey:          c.AlchemyAPIKey,
		ContractAddress: c.VoucherContract,
		Networks:        networks,
		Timeout:         c.NFTRequestTimeout,
		Stock: alchemy.StockConfig{
			ContractAddress: c.StockContract,
			TokenID:         c.StockTokenID,
			APIURL:          c.StockAPIURL,
			Network:         stockNet,
		},
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
