// Package leveldbstore is a storage.Store backed by go-datastore's
// leveldb binding, the "leveldb" server.storage option. Coin rows are
// cbor-encoded and kept under two key prefixes, one by coin coordinate
// and one by address, so GetCoins is a single prefix query instead of a
// full scan; headers live under a zero-padded height prefix so a
// datastore query returns them in chain order.
package leveldbstore

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	leveldb "github.com/ipfs/go-ds-leveldb"

	"github.com/walletcore/chainsync/internal/storage"
)

const (
	coinPrefix   = "/coins"
	addrPrefix   = "/byaddr"
	headerPrefix = "/headers"
)

// Store is a go-datastore/leveldb-backed storage.Store.
type Store struct {
	ds *leveldb.Datastore
}

// Open opens (creating if necessary) a leveldb datastore at path.
func Open(path string) (*Store, error) {
	d, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: open %s: %w", path, err)
	}
	return &Store{ds: d}, nil
}

func (s *Store) Initialize(ctx context.Context) error {
	return nil
}

func coinKey(cTxID string, cIndex uint32) ds.Key {
	return ds.NewKey(fmt.Sprintf("%s/%s/%d", coinPrefix, cTxID, cIndex))
}

func addrEntryKey(address, cTxID string, cIndex uint32) ds.Key {
	return ds.NewKey(fmt.Sprintf("%s/%s/%s/%d", addrPrefix, address, cTxID, cIndex))
}

func (s *Store) GetAddress(ctx context.Context, cTxID string, cIndex uint32) (string, bool, error) {
	raw, err := s.ds.Get(ctx, coinKey(cTxID, cIndex))
	if err == ds.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("leveldbstore: GetAddress: %w", err)
	}
	var coin storage.Coin
	if err := cbor.Unmarshal(raw, &coin); err != nil {
		return "", false, fmt.Errorf("leveldbstore: GetAddress: decode: %w", err)
	}
	return coin.Address, true, nil
}

func (s *Store) putCoin(ctx context.Context, coin storage.Coin) error {
	raw, err := cbor.Marshal(coin)
	if err != nil {
		return fmt.Errorf("leveldbstore: encode coin: %w", err)
	}
	if err := s.ds.Put(ctx, coinKey(coin.CTxID, coin.CIndex), raw); err != nil {
		return err
	}
	return s.ds.Put(ctx, addrEntryKey(coin.Address, coin.CTxID, coin.CIndex), raw)
}

func (s *Store) AddCoin(ctx context.Context, address, cTxID string, cIndex uint32, cValue, cHeight int64) error {
	coin := storage.Coin{CTxID: cTxID, CIndex: cIndex, Address: address, CValue: cValue, CHeight: cHeight}
	if err := s.putCoin(ctx, coin); err != nil {
		return fmt.Errorf("leveldbstore: AddCoin: %w", err)
	}
	return nil
}

func (s *Store) getCoin(ctx context.Context, cTxID string, cIndex uint32) (storage.Coin, bool, error) {
	raw, err := s.ds.Get(ctx, coinKey(cTxID, cIndex))
	if err == ds.ErrNotFound {
		return storage.Coin{}, false, nil
	}
	if err != nil {
		return storage.Coin{}, false, err
	}
	var coin storage.Coin
	if err := cbor.Unmarshal(raw, &coin); err != nil {
		return storage.Coin{}, false, err
	}
	return coin, true, nil
}

func (s *Store) RemoveCoin(ctx context.Context, cTxID string, cIndex uint32) error {
	coin, ok, err := s.getCoin(ctx, cTxID, cIndex)
	if err != nil {
		return fmt.Errorf("leveldbstore: RemoveCoin: %w", err)
	}
	if !ok {
		return nil
	}
	if err := s.ds.Delete(ctx, coinKey(cTxID, cIndex)); err != nil {
		return err
	}
	return s.ds.Delete(ctx, addrEntryKey(coin.Address, cTxID, cIndex))
}

func (s *Store) SetSpent(ctx context.Context, cTxID string, cIndex uint32, sTxID string, sHeight int64) error {
	coin, ok, err := s.getCoin(ctx, cTxID, cIndex)
	if err != nil {
		return fmt.Errorf("leveldbstore: SetSpent: %w", err)
	}
	if !ok {
		return fmt.Errorf("leveldbstore: SetSpent: coin (%s,%d) not found", cTxID, cIndex)
	}
	coin.STxID = sTxID
	coin.SHeight = sHeight
	return s.putCoin(ctx, coin)
}

func (s *Store) SetUnspent(ctx context.Context, cTxID string, cIndex uint32) error {
	coin, ok, err := s.getCoin(ctx, cTxID, cIndex)
	if err != nil {
		return fmt.Errorf("leveldbstore: SetUnspent: %w", err)
	}
	if !ok {
		return fmt.Errorf("leveldbstore: SetUnspent: coin (%s,%d) not found", cTxID, cIndex)
	}
	coin.STxID = ""
	coin.SHeight = 0
	return s.putCoin(ctx, coin)
}

func (s *Store) GetCoins(ctx context.Context, address string) ([]storage.Coin, error) {
	results, err := s.ds.Query(ctx, dsq.Query{Prefix: fmt.Sprintf("%s/%s", addrPrefix, address)})
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: GetCoins: %w", err)
	}
	defer results.Close()

	var coins []storage.Coin
	for entry := range results.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("leveldbstore: GetCoins: %w", entry.Error)
		}
		var coin storage.Coin
		if err := cbor.Unmarshal(entry.Value, &coin); err != nil {
			return nil, fmt.Errorf("leveldbstore: GetCoins: decode: %w", err)
		}
		coins = append(coins, coin)
	}
	return coins, nil
}

func headerKey(height int64) ds.Key {
	return ds.NewKey(fmt.Sprintf("%s/%020d", headerPrefix, height))
}

func (s *Store) PushHeader(ctx context.Context, hexHeader string, height int64) error {
	if err := s.ds.Put(ctx, headerKey(height), []byte(hexHeader)); err != nil {
		return fmt.Errorf("leveldbstore: PushHeader: %w", err)
	}
	return nil
}

func (s *Store) PopHeader(ctx context.Context) error {
	headers, err := s.headerEntries(ctx)
	if err != nil {
		return fmt.Errorf("leveldbstore: PopHeader: %w", err)
	}
	if len(headers) == 0 {
		return nil
	}
	last := headers[len(headers)-1]
	return s.ds.Delete(ctx, ds.NewKey(last.Key))
}

func (s *Store) headerEntries(ctx context.Context) ([]dsq.Entry, error) {
	results, err := s.ds.Query(ctx, dsq.Query{Prefix: headerPrefix, Orders: []dsq.Order{dsq.OrderByKey{}}})
	if err != nil {
		return nil, err
	}
	defer results.Close()
	return results.Rest()
}

func (s *Store) GetAllHeaders(ctx context.Context) ([]string, error) {
	entries, err := s.headerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: GetAllHeaders: %w", err)
	}
	headers := make([]string, len(entries))
	for i, e := range entries {
		headers[i] = string(e.Value)
	}
	return headers, nil
}

func (s *Store) Close() error {
	return s.ds.Close()
}

var _ storage.Store = (*Store)(nil)
