// Package mempool is the volatile unconfirmed-transaction overlay (C8)
// owned by the synchronizer: four mappings tracking unconfirmed spends,
// outputs and addresses, replaced atomically on every newHeight (spec
// §3, §4.4, §4.5). Nothing in here persists; it is discarded on every
// newHeight and rebuilt from the node's mempool contents by the
// following update cycles.
package mempool

import (
	"context"

	"github.com/walletcore/chainsync/internal/storage"
)

type coinCoord struct {
	txID  string
	index uint32
}

// Overlay is the mempool view. It is strictly additive within one
// cycle: an entry, once inserted, is never mutated until the whole
// structure is replaced.
type Overlay struct {
	txIDs map[string]struct{}
	spent map[coinCoord]string
	addrs map[coinCoord]string
	coins map[string]map[string]map[uint32]int64 // address -> txID -> index -> value
}

// New returns an empty overlay.
func New() *Overlay {
	return &Overlay{
		txIDs: make(map[string]struct{}),
		spent: make(map[coinCoord]string),
		addrs: make(map[coinCoord]string),
		coins: make(map[string]map[string]map[uint32]int64),
	}
}

// Seen reports whether txID has already been processed this cycle.
func (o *Overlay) Seen(txID string) bool {
	_, ok := o.txIDs[txID]
	return ok
}

// MarkSeen records txID as processed.
func (o *Overlay) MarkSeen(txID string) {
	o.txIDs[txID] = struct{}{}
}

// RecordSpend records that (cTxID, cIndex) is spent, unconfirmed, by
// spendTxID.
func (o *Overlay) RecordSpend(cTxID string, cIndex uint32, spendTxID string) {
	o.spent[coinCoord{cTxID, cIndex}] = spendTxID
}

// RecordOutput records an unconfirmed output paying address, and the
// reverse (txID, outIndex) -> address lookup.
func (o *Overlay) RecordOutput(txID string, outIndex uint32, address string, value int64) {
	o.addrs[coinCoord{txID, outIndex}] = address
	if o.coins[address] == nil {
		o.coins[address] = make(map[string]map[uint32]int64)
	}
	if o.coins[address][txID] == nil {
		o.coins[address][txID] = make(map[uint32]int64)
	}
	o.coins[address][txID][outIndex] = value
}

// Len returns the number of distinct transactions processed this cycle,
// for the mempool_size gauge.
func (o *Overlay) Len() int {
	return len(o.txIDs)
}

// AddressOf resolves (txID, outIndex) to the address recorded for an
// unconfirmed output, or "" if none.
func (o *Overlay) AddressOf(txID string, outIndex uint32) string {
	return o.addrs[coinCoord{txID, outIndex}]
}

// GetAddress implements the overlay half of the query in §4.5: the
// mempool addrs mapping first, falling back to storage.
func (o *Overlay) GetAddress(ctx context.Context, store storage.Store, txID string, outIndex uint32) (string, bool, error) {
	if addr := o.AddressOf(txID, outIndex); addr != "" {
		return addr, true, nil
	}
	return store.GetAddress(ctx, txID, outIndex)
}

// GetCoins implements spec §4.5: the storage list, with unconfirmed
// outputs appended at cHeight == 0, then the mempool spend annotation
// applied across the combined set.
func (o *Overlay) GetCoins(storageCoins []storage.Coin, address string) []storage.Coin {
	coins := make([]storage.Coin, len(storageCoins))
	copy(coins, storageCoins)

	for txID, byIndex := range o.coins[address] {
		for index, value := range byIndex {
			coins = append(coins, storage.Coin{
				CTxID:   txID,
				CIndex:  index,
				Address: address,
				CValue:  value,
				CHeight: 0,
			})
		}
	}

	for i := range coins {
		if spendTxID, ok := o.spent[coinCoord{coins[i].CTxID, coins[i].CIndex}]; ok {
			coins[i].STxID = spendTxID
			coins[i].SHeight = 0
		}
	}
	return coins
}
