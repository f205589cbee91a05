// Package memstore is an in-memory storage.Store backed by plain maps
// guarded by a mutex. It exists as a disposable test double and a
// "memory" server.storage option; nothing it does is specific to any
// production deployment.
package memstore

import (
	"context"
	"sync"

	"github.com/walletcore/chainsync/internal/storage"
)

type coinKey struct {
	txID  string
	index uint32
}

// Store is an in-memory storage.Store implementation.
type Store struct {
	mu      sync.Mutex
	coins   map[coinKey]storage.Coin
	byAddr  map[string]map[coinKey]struct{}
	headers []string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		coins:  make(map[coinKey]storage.Coin),
		byAddr: make(map[string]map[coinKey]struct{}),
	}
}

func (s *Store) Initialize(ctx context.Context) error {
	return nil
}

func (s *Store) GetAddress(ctx context.Context, cTxID string, cIndex uint32) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coins[coinKey{cTxID, cIndex}]
	if !ok {
		return "", false, nil
	}
	return c.Address, true, nil
}

func (s *Store) AddCoin(ctx context.Context, address, cTxID string, cIndex uint32, cValue, cHeight int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := coinKey{cTxID, cIndex}
	s.coins[key] = storage.Coin{
		CTxID:   cTxID,
		CIndex:  cIndex,
		Address: address,
		CValue:  cValue,
		CHeight: cHeight,
	}
	if s.byAddr[address] == nil {
		s.byAddr[address] = make(map[coinKey]struct{})
	}
	s.byAddr[address][key] = struct{}{}
	return nil
}

func (s *Store) RemoveCoin(ctx context.Context, cTxID string, cIndex uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := coinKey{cTxID, cIndex}
	c, ok := s.coins[key]
	if !ok {
		return nil
	}
	delete(s.coins, key)
	delete(s.byAddr[c.Address], key)
	return nil
}

func (s *Store) SetSpent(ctx context.Context, cTxID string, cIndex uint32, sTxID string, sHeight int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := coinKey{cTxID, cIndex}
	c := s.coins[key]
	c.STxID = sTxID
	c.SHeight = sHeight
	s.coins[key] = c
	return nil
}

func (s *Store) SetUnspent(ctx context.Context, cTxID string, cIndex uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := coinKey{cTxID, cIndex}
	c := s.coins[key]
	c.STxID = ""
	c.SHeight = 0
	s.coins[key] = c
	return nil
}

func (s *Store) GetCoins(ctx context.Context, address string) ([]storage.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.byAddr[address]
	coins := make([]storage.Coin, 0, len(keys))
	for key := range keys {
		coins = append(coins, s.coins[key])
	}
	return coins, nil
}

func (s *Store) PushHeader(ctx context.Context, hexHeader string, height int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = append(s.headers, hexHeader)
	return nil
}

func (s *Store) PopHeader(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	s.headers = s.headers[:len(s.headers)-1]
	return nil
}

func (s *Store) GetAllHeaders(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.headers))
	copy(out, s.headers)
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

var _ storage.Store = (*Store)(nil)
