package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/portdeveloper/get-abi-2000/etherscan"
)

// ABIStorage caches resolved ABIs for the lifetime of the process.
type ABIStorage struct {
	mu    sync.RWMutex
	cache map[string]StorageItem
}

type StorageItem struct {
	ABI            etherscan.ContractABI
	Implementation string
	IsProxy        bool
	IsDecompiled   bool
}

func NewABIStorage() *ABIStorage {
	return &ABIStorage{
		cache: make(map[string]StorageItem),
	}
}

func storageKey(chainID int, address string) string {
	return fmt.Sprintf("%d-%s", chainID, strings.ToLower(address))
}

func (s *ABIStorage) Set(key string, item StorageItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = item
}

func (s *ABIStorage) Get(key string) (StorageItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.cache[key]
	return item, ok
}

func (s *ABIStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
