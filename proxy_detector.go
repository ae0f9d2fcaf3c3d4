package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// ContractReader is the subset of *ethclient.Client used to inspect contracts.
type ContractReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type ProxyType string

const (
	ProxyEIP1167       ProxyType = "Eip1167"
	ProxyEIP1967Direct ProxyType = "Eip1967Direct"
	ProxyEIP1967Beacon ProxyType = "Eip1967Beacon"
	ProxyOpenZeppelin  ProxyType = "OpenZeppelin"
	ProxyEIP1822       ProxyType = "Eip1822"
	ProxyInterfaceCall ProxyType = "InterfaceCall"
)

var (
	eip1967LogicSlot      = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	eip1967BeaconSlot     = common.HexToHash("0xa3f0ad74e5423aebfd80d3ef4346578335a9a72aeaee59ff6cb3582b35133d50")
	eip1822LogicSlot      = common.HexToHash("0xc5f16f0fcc639fa48a6947836d9850f504798523bf8c9a3a87d5876cf622bcf7")
	openZeppelinImplSlot  = common.HexToHash("0x7050c9e0f4ca769c69bd3a8ef740bc37934f8e2c036e5a723fd8ee048ed3f8c3")
	minimalProxyPrefix    = common.FromHex("0x363d3d373d3d3d363d")
	minimalProxySuffix    = common.FromHex("0x57fd5bf3")
	implementationMethod  = common.FromHex("0x5c60da1b") // implementation()
	childImplMethod       = common.FromHex("0xda525716") // childImplementation()
	masterCopyMethod      = common.FromHex("0xa619486e") // masterCopy()
	comptrollerImplMethod = common.FromHex("0xbb82aa5e") // comptrollerImplementation()
)

var errNotProxy = errors.New("not a proxy")

type ProxyInfo struct {
	Target    common.Address
	Immutable bool
	Type      ProxyType
}

type proxyCheck func(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error)

// proxyChecks are listed in priority order.
var proxyChecks = []proxyCheck{
	detectMinimalProxy,
	slotCheck(eip1967LogicSlot, ProxyEIP1967Direct),
	detectBeaconProxy,
	slotCheck(openZeppelinImplSlot, ProxyOpenZeppelin),
	slotCheck(eip1822LogicSlot, ProxyEIP1822),
	interfaceCheck(implementationMethod),
	interfaceCheck(masterCopyMethod),
	interfaceCheck(comptrollerImplMethod),
}

// DetectProxyTarget runs every proxy check concurrently and returns the
// highest priority match.
func DetectProxyTarget(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error) {
	results := make([]*ProxyInfo, len(proxyChecks))

	var g errgroup.Group
	for i, check := range proxyChecks {
		i, check := i, check
		g.Go(func() error {
			info, err := check(ctx, reader, proxy)
			if err == nil {
				results[i] = info
			}
			// individual failures only mean this pattern does not apply
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, info := range results {
		if info != nil {
			return info, nil
		}
	}
	return nil, fmt.Errorf("unable to detect proxy target: %w", errNotProxy)
}

func detectMinimalProxy(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error) {
	code, err := reader.CodeAt(ctx, proxy, nil)
	if err != nil {
		return nil, err
	}
	return parseMinimalProxy(code)
}

// parseMinimalProxy extracts the target of an EIP-1167 clone, including the
// vanity variants that push fewer than 20 address bytes.
func parseMinimalProxy(code []byte) (*ProxyInfo, error) {
	if !bytes.HasPrefix(code, minimalProxyPrefix) || len(code) <= len(minimalProxyPrefix) {
		return nil, errNotProxy
	}

	// PUSH1..PUSH20
	addressLength := int(code[len(minimalProxyPrefix)]) - 0x5f
	if addressLength < 1 || addressLength > 20 {
		return nil, fmt.Errorf("invalid address length %d in EIP-1167 bytecode", addressLength)
	}

	start := len(minimalProxyPrefix) + 1
	end := start + addressLength
	suffixStart := end + 11
	if len(code) < suffixStart+len(minimalProxySuffix) || !bytes.HasSuffix(code[suffixStart:], minimalProxySuffix) {
		return nil, errors.New("invalid EIP-1167 bytecode suffix")
	}

	return &ProxyInfo{
		Target:    common.BytesToAddress(code[start:end]),
		Immutable: true,
		Type:      ProxyEIP1167,
	}, nil
}

func slotCheck(slot common.Hash, proxyType ProxyType) proxyCheck {
	return func(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error) {
		value, err := reader.StorageAt(ctx, proxy, slot, nil)
		if err != nil {
			return nil, err
		}
		target, ok := addressFromWord(value)
		if !ok {
			return nil, errNotProxy
		}
		return &ProxyInfo{Target: target, Type: proxyType}, nil
	}
}

func detectBeaconProxy(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error) {
	value, err := reader.StorageAt(ctx, proxy, eip1967BeaconSlot, nil)
	if err != nil {
		return nil, err
	}
	beacon, ok := addressFromWord(value)
	if !ok {
		return nil, errNotProxy
	}

	for _, method := range [][]byte{implementationMethod, childImplMethod} {
		data, err := reader.CallContract(ctx, ethereum.CallMsg{To: &beacon, Data: method}, nil)
		if err != nil {
			continue
		}
		if target, ok := addressFromWord(data); ok {
			return &ProxyInfo{Target: target, Type: ProxyEIP1967Beacon}, nil
		}
	}
	return nil, errors.New("beacon method calls failed")
}

func interfaceCheck(method []byte) proxyCheck {
	return func(ctx context.Context, reader ContractReader, proxy common.Address) (*ProxyInfo, error) {
		data, err := reader.CallContract(ctx, ethereum.CallMsg{To: &proxy, Data: method}, nil)
		if err != nil {
			return nil, err
		}
		target, ok := addressFromWord(data)
		if !ok {
			return nil, errNotProxy
		}
		return &ProxyInfo{Target: target, Type: ProxyInterfaceCall}, nil
	}
}

// addressFromWord reads an address from a 32 byte word, rejecting short
// words and the zero address.
func addressFromWord(word []byte) (common.Address, bool) {
	if len(word) < common.HashLength {
		return common.Address{}, false
	}
	addr := common.BytesToAddress(word[common.HashLength-common.AddressLength : common.HashLength])
	return addr, addr != (common.Address{})
}
