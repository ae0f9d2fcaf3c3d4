package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

// Decompiler recovers an ABI from bytecode when no verified source exists.
type Decompiler interface {
	Decompile(ctx context.Context, address string, rpcURL string) (etherscan.ContractABI, error)
}

// HeimdallDecompiler calls a heimdall-api instance.
type HeimdallDecompiler struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (h *HeimdallDecompiler) Decompile(ctx context.Context, address string, rpcURL string) (etherscan.ContractABI, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(h.BaseURL, "/"), address, url.Values{"rpc_url": {rpcURL}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("heimdall API error: %s", string(body))
	}

	return etherscan.ParseABI(address, body)
}
