package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// ChainConfig describes one etherscan-compatible explorer.
type ChainConfig struct {
	ID     int
	Name   string
	APIURL string
	EnvKey string
	APIKey string
}

type Config struct {
	Port                 string
	LogLevel             zerolog.Level
	LogFormat            string
	MaxRequestsPerSecond float64
	RequestTimeout       time.Duration
	HeimdallURL          string
	Chains               []ChainConfig

	DotEnvLoaded bool
}

var defaultChains = []ChainConfig{
	{ID: 1, Name: "ethereum", APIURL: "https://api.etherscan.io/api", EnvKey: "ETHEREUM_API_KEY"},
	{ID: 11155111, Name: "sepolia", APIURL: "https://api-sepolia.etherscan.io/api", EnvKey: "SEPOLIA_API_KEY"},
	{ID: 10, Name: "optimism", APIURL: "https://api-optimistic.etherscan.io/api", EnvKey: "OPTIMISM_API_KEY"},
	{ID: 56, Name: "bsc", APIURL: "https://api.bscscan.com/api", EnvKey: "BSC_API_KEY"},
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		DotEnvLoaded:         godotenv.Load() == nil,
		Port:                 getenv("PORT", "8080"),
		LogFormat:            getenv("LOG_FORMAT", "console"),
		MaxRequestsPerSecond: 5,
		RequestTimeout:       30 * time.Second,
		HeimdallURL:          os.Getenv("HEIMDALL_URL"),
	}

	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q: must be 'console' or 'json'", cfg.LogFormat)
	}

	if v := os.Getenv("MAX_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_REQUESTS_PER_SECOND %q: must be a positive number", v)
		}
		cfg.MaxRequestsPerSecond = rps
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	for _, chain := range defaultChains {
		chain.APIKey = os.Getenv(chain.EnvKey)
		cfg.Chains = append(cfg.Chains, chain)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
