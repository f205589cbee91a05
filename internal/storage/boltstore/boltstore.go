// Package boltstore is a storage.Store backed by a single bbolt file,
// the "bolt" server.storage option. Coins are kept in a primary bucket
// keyed by coin coordinate and a secondary bucket keyed by address for
// GetCoins, both cbor-encoded; headers are kept in a bucket keyed by
// big-endian height so bbolt's natural key ordering gives chain order.
package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/walletcore/chainsync/internal/storage"
)

var (
	bucketCoins       = []byte("coins")
	bucketCoinsByAddr = []byte("coins_by_addr")
	bucketHeaders     = []byte("headers")
)

// Store is a bbolt-backed storage.Store.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) a bbolt database file at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Initialize(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketCoins, bucketCoinsByAddr, bucketHeaders} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func coinKey(cTxID string, cIndex uint32) []byte {
	key := make([]byte, len(cTxID)+4)
	copy(key, cTxID)
	binary.BigEndian.PutUint32(key[len(cTxID):], cIndex)
	return key
}

func addrKey(address, cTxID string, cIndex uint32) []byte {
	key := []byte(address + "\x00")
	return append(key, coinKey(cTxID, cIndex)...)
}

func (s *Store) GetAddress(ctx context.Context, cTxID string, cIndex uint32) (string, bool, error) {
	var coin storage.Coin
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCoins).Get(coinKey(cTxID, cIndex))
		if raw == nil {
			return nil
		}
		found = true
		return cbor.Unmarshal(raw, &coin)
	})
	if err != nil {
		return "", false, fmt.Errorf("boltstore: GetAddress: %w", err)
	}
	if !found {
		return "", false, nil
	}
	return coin.Address, true, nil
}

func (s *Store) AddCoin(ctx context.Context, address, cTxID string, cIndex uint32, cValue, cHeight int64) error {
	coin := storage.Coin{CTxID: cTxID, CIndex: cIndex, Address: address, CValue: cValue, CHeight: cHeight}
	raw, err := cbor.Marshal(coin)
	if err != nil {
		return fmt.Errorf("boltstore: AddCoin: encode: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketCoins).Put(coinKey(cTxID, cIndex), raw); err != nil {
			return err
		}
		return tx.Bucket(bucketCoinsByAddr).Put(addrKey(address, cTxID, cIndex), raw)
	})
}

func (s *Store) RemoveCoin(ctx context.Context, cTxID string, cIndex uint32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCoins).Get(coinKey(cTxID, cIndex))
		if raw == nil {
			return nil
		}
		var coin storage.Coin
		if err := cbor.Unmarshal(raw, &coin); err != nil {
			return err
		}
		if err := tx.Bucket(bucketCoins).Delete(coinKey(cTxID, cIndex)); err != nil {
			return err
		}
		return tx.Bucket(bucketCoinsByAddr).Delete(addrKey(coin.Address, cTxID, cIndex))
	})
}

func (s *Store) updateCoin(cTxID string, cIndex uint32, mutate func(*storage.Coin)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketCoins).Get(coinKey(cTxID, cIndex))
		if raw == nil {
			return fmt.Errorf("boltstore: coin (%s,%d) not found", cTxID, cIndex)
		}
		var coin storage.Coin
		if err := cbor.Unmarshal(raw, &coin); err != nil {
			return err
		}
		mutate(&coin)
		encoded, err := cbor.Marshal(coin)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketCoins).Put(coinKey(cTxID, cIndex), encoded); err != nil {
			return err
		}
		return tx.Bucket(bucketCoinsByAddr).Put(addrKey(coin.Address, cTxID, cIndex), encoded)
	})
}

func (s *Store) SetSpent(ctx context.Context, cTxID string, cIndex uint32, sTxID string, sHeight int64) error {
	return s.updateCoin(cTxID, cIndex, func(c *storage.Coin) {
		c.STxID = sTxID
		c.SHeight = sHeight
	})
}

func (s *Store) SetUnspent(ctx context.Context, cTxID string, cIndex uint32) error {
	return s.updateCoin(cTxID, cIndex, func(c *storage.Coin) {
		c.STxID = ""
		c.SHeight = 0
	})
}

func (s *Store) GetCoins(ctx context.Context, address string) ([]storage.Coin, error) {
	var coins []storage.Coin
	prefix := []byte(address + "\x00")
	err := s.db.View(func(tx *bbolt.Tx) error {
		cur := tx.Bucket(bucketCoinsByAddr).Cursor()
		for k, v := cur.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = cur.Next() {
			var coin storage.Coin
			if err := cbor.Unmarshal(v, &coin); err != nil {
				return err
			}
			coins = append(coins, coin)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: GetCoins: %w", err)
	}
	return coins, nil
}

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}

func heightKey(height int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(height))
	return key
}

func (s *Store) PushHeader(ctx context.Context, hexHeader string, height int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHeaders).Put(heightKey(height), []byte(hexHeader))
	})
}

func (s *Store) PopHeader(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		cur := tx.Bucket(bucketHeaders).Cursor()
		k, _ := cur.Last()
		if k == nil {
			return nil
		}
		return tx.Bucket(bucketHeaders).Delete(k)
	})
}

func (s *Store) GetAllHeaders(ctx context.Context) ([]string, error) {
	var headers []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHeaders).ForEach(func(k, v []byte) error {
			headers = append(headers, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: GetAllHeaders: %w", err)
	}
	return headers, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ storage.Store = (*Store)(nil)
