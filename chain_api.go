package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

// ChainAPI fetches verified ABIs for a single chain. *etherscan.Client
// satisfies it.
type ChainAPI interface {
	GetABI(ctx context.Context, address string) (etherscan.ContractABI, bool, error)
}

// NewChainAPIs builds one throttled explorer client per configured chain.
// Chains without an API key are skipped.
func NewChainAPIs(cfg Config, log zerolog.Logger) (map[int]ChainAPI, error) {
	httpClient := &http.Client{Timeout: requestTimeout(cfg)}

	apis := make(map[int]ChainAPI, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		if chain.APIKey == "" {
			log.Warn().
				Int("chainId", chain.ID).
				Str("env", chain.EnvKey).
				Msg("API key not set for chain, explorer lookups disabled")
			continue
		}

		chainLog := log.With().Int("chainId", chain.ID).Str("chain", chain.Name).Logger()
		client, err := etherscan.NewClient(etherscan.Config{
			APIURL:               chain.APIURL,
			APIKey:               chain.APIKey,
			MaxRequestsPerSecond: cfg.MaxRequestsPerSecond,
			HTTPClient:           httpClient,
			Logger:               &chainLog,
		})
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", chain.ID, err)
		}
		apis[chain.ID] = client
	}
	return apis, nil
}

func requestTimeout(cfg Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return cfg.RequestTimeout
}
