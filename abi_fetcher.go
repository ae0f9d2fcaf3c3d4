package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

// DialFunc connects to a JSON-RPC node. The returned func releases the connection.
type DialFunc func(ctx context.Context, rpcURL string) (ContractReader, func(), error)

func dialEthereum(ctx context.Context, rpcURL string) (ContractReader, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

type ABIFetcher struct {
	storage       *ABIStorage
	etherscanAPIs map[int]ChainAPI
	decompiler    Decompiler
	dial          DialFunc
	metrics       *Metrics
	log           zerolog.Logger
}

func NewABIFetcher(storage *ABIStorage, etherscanAPIs map[int]ChainAPI, decompiler Decompiler, metrics *Metrics, log zerolog.Logger) *ABIFetcher {
	return &ABIFetcher{
		storage:       storage,
		etherscanAPIs: etherscanAPIs,
		decompiler:    decompiler,
		dial:          dialEthereum,
		metrics:       metrics,
		log:           log,
	}
}

func (af *ABIFetcher) FetchABI(ctx context.Context, chainIDParam string, address string, rpcURL string) (StorageItem, error) {
	chainID, err := strconv.Atoi(chainIDParam)
	if err != nil {
		return StorageItem{}, &InvalidInputError{message: "Invalid chainId: must be a number"}
	}

	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return StorageItem{}, &InvalidInputError{message: "Invalid address: must be 42 characters long (including '0x' prefix)"}
	}

	if rpcURL == "" {
		return StorageItem{}, &InvalidInputError{message: "Invalid rpcURL: cannot be empty"}
	}

	key := storageKey(chainID, address)
	if item, ok := af.storage.Get(key); ok {
		af.metrics.ObserveLookup(chainID, "cache")
		return item, nil
	}

	reader, closeReader, err := af.dial(ctx, nodeURL(rpcURL))
	if err != nil {
		return StorageItem{}, &InvalidInputError{message: "Failed to connect to Ethereum node: " + err.Error()}
	}
	defer closeReader()

	contract := common.HexToAddress(address)
	if err := af.validateContract(ctx, reader, contract); err != nil {
		return StorageItem{}, err
	}

	proxyInfo, err := DetectProxyTarget(ctx, reader, contract)
	if err != nil {
		af.log.Debug().Err(err).Str("address", address).Msg("no proxy detected")
		proxyInfo = nil
	}

	targetAddress, implementation := af.getTargetAddress(address, proxyInfo)
	abi, isDecompiled, err := af.getABI(ctx, chainID, targetAddress, rpcURL)
	if err != nil {
		af.metrics.ObserveLookup(chainID, "error")
		return StorageItem{}, fmt.Errorf("failed to fetch ABI: %w", err)
	}

	source := "explorer"
	if isDecompiled {
		source = "decompiler"
	}
	af.metrics.ObserveLookup(chainID, source)

	item := StorageItem{
		ABI:            abi,
		Implementation: implementation,
		IsProxy:        proxyInfo != nil,
		IsDecompiled:   isDecompiled,
	}
	af.storage.Set(key, item)

	af.log.Info().
		Int("chainId", chainID).
		Str("address", address).
		Str("implementation", implementation).
		Bool("decompiled", isDecompiled).
		Int("members", len(abi)).
		Msg("resolved contract ABI")

	return item, nil
}

func (af *ABIFetcher) validateContract(ctx context.Context, reader ContractReader, address common.Address) error {
	code, err := reader.CodeAt(ctx, address, nil)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return &InvalidInputError{message: "Invalid RPC URL or network error: " + err.Error()}
		}
		return fmt.Errorf("failed to check contract code: %w", err)
	}
	if len(code) == 0 {
		return &ContractNotFoundError{address: address.Hex()}
	}
	return nil
}

func (af *ABIFetcher) getTargetAddress(address string, proxyInfo *ProxyInfo) (string, string) {
	if proxyInfo != nil && proxyInfo.Target != (common.Address{}) {
		return proxyInfo.Target.Hex(), proxyInfo.Target.Hex()
	}
	return address, ""
}

// getABI asks the chain's explorer first and falls back to the decompiler
// when the source is not verified or the explorer fails.
func (af *ABIFetcher) getABI(ctx context.Context, chainID int, targetAddress string, rpcURL string) (etherscan.ContractABI, bool, error) {
	var explorerErr error

	api, ok := af.etherscanAPIs[chainID]
	if ok {
		abi, found, err := api.GetABI(ctx, targetAddress)
		if err == nil && found {
			return abi, false, nil
		}
		if err != nil {
			explorerErr = err
			af.log.Warn().Err(err).Int("chainId", chainID).Str("address", targetAddress).Msg("error fetching ABI from explorer")
		}
	}

	if af.decompiler == nil {
		switch {
		case explorerErr != nil:
			return nil, false, explorerErr
		case !ok:
			return nil, false, &UnsupportedChainError{chainID: chainID}
		default:
			return nil, false, &ABINotFoundError{address: targetAddress}
		}
	}

	abi, err := af.decompiler.Decompile(ctx, targetAddress, rpcURL)
	if err != nil {
		af.log.Warn().Err(err).Str("address", targetAddress).Msg("error decompiling contract")
		if explorerErr != nil {
			return nil, false, explorerErr
		}
		return nil, false, &ABINotFoundError{address: targetAddress}
	}
	return abi, true, nil
}

func createResponse(item StorageItem) gin.H {
	var implementation any
	if item.Implementation != "" {
		implementation = item.Implementation
	}
	return gin.H{
		"abi":            item.ABI,
		"implementation": implementation,
		"isProxy":        item.IsProxy,
		"isDecompiled":   item.IsDecompiled,
	}
}

func nodeURL(rpcURL string) string {
	if strings.HasPrefix(rpcURL, "http://") || strings.HasPrefix(rpcURL, "https://") ||
		strings.HasPrefix(rpcURL, "ws://") || strings.HasPrefix(rpcURL, "wss://") {
		return rpcURL
	}
	return "https://" + rpcURL
}
