// Package etherscan is a throttled client for etherscan-compatible explorer
// APIs, focused on fetching and validating contract ABIs.
package etherscan

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	APIURL string
	APIKey string

	// MaxRequestsPerSecond defaults to DefaultMaxRequestsPerSecond when zero.
	MaxRequestsPerSecond float64

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to one explorer API. Every request made through a Client,
// from any goroutine, shares the same throttle.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	throttle   *Throttle
	log        zerolog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("etherscan: api url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("etherscan: api key is required")
	}
	if cfg.MaxRequestsPerSecond < 0 {
		return nil, errors.New("etherscan: max requests per second must not be negative")
	}

	c := &Client{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		throttle:   NewThrottle(cfg.MaxRequestsPerSecond),
		log:        zerolog.Nop(),
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "etherscan").Str("api", cfg.APIURL).Logger()
	}
	return c, nil
}

// GetABI fetches and validates the ABI of the contract at address. The bool
// is false, with a nil error, when the explorer has no verified source for
// the contract.
func (c *Client) GetABI(ctx context.Context, address string) (ContractABI, bool, error) {
	start := time.Now()

	envelope, err := c.Call(ctx, ContractGetABI, Params{"address": address})
	if err != nil {
		return nil, false, err
	}

	tree, outcome, err := decodeABI(envelope, address)
	if err != nil {
		return nil, false, err
	}
	if outcome == outcomeNotVerified {
		c.log.Debug().Str("address", address).Msg("contract source not verified")
		return nil, false, nil
	}

	abi, err := Validate(address, tree)
	if err != nil {
		return nil, false, err
	}

	c.log.Debug().
		Str("address", address).
		Int("members", len(abi)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched contract abi")
	return abi, true, nil
}
