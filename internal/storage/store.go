// Package storage defines the capability set (C5) that the synchronizer
// core needs from a persisted backend: a header log and a coin index,
// both keyed the way spec §3 describes. Three drivers — bbolt, a
// go-datastore/leveldb backend, and an in-memory map — satisfy it; no
// driver-specific behavior is allowed to leak into the core.
package storage

import "context"

// Coin is a single tracked transaction output, optionally annotated with
// the spending transaction. The unspent form has STxID == "" and
// SHeight == 0. CHeight == 0 is reserved for unconfirmed coins surfaced
// by the mempool overlay and never appears in a Store-persisted row.
type Coin struct {
	CTxID   string
	CIndex  uint32
	Address string
	CValue  int64
	CHeight int64
	STxID   string
	SHeight int64
}

// Spent reports whether the coin has a recorded spending transaction.
func (c Coin) Spent() bool {
	return c.STxID != ""
}

// Store is the persisted coin index and header log contract (C5). At
// least one write per call is required (at-least-once semantics);
// idempotence at the coin-identity level (CTxID, CIndex) is the caller's
// responsibility, not the driver's.
type Store interface {
	// Initialize prepares schema/collections. Idempotent.
	Initialize(ctx context.Context) error

	// GetAddress returns the address owning (cTxID, cIndex), and false if
	// no such coin is known to storage.
	GetAddress(ctx context.Context, cTxID string, cIndex uint32) (string, bool, error)

	// AddCoin inserts a new unspent coin. The caller guarantees
	// (cTxID, cIndex) does not already exist.
	AddCoin(ctx context.Context, address, cTxID string, cIndex uint32, cValue, cHeight int64) error

	// RemoveCoin deletes the coin at (cTxID, cIndex). Inverse of AddCoin.
	RemoveCoin(ctx context.Context, cTxID string, cIndex uint32) error

	// SetSpent marks the coin at (cTxID, cIndex) spent by sTxID at
	// sHeight. The caller guarantees the row exists.
	SetSpent(ctx context.Context, cTxID string, cIndex uint32, sTxID string, sHeight int64) error

	// SetUnspent clears the spending annotation, leaving the row in
	// place. Inverse of SetSpent.
	SetUnspent(ctx context.Context, cTxID string, cIndex uint32) error

	// GetCoins returns every coin known to storage for address.
	GetCoins(ctx context.Context, address string) ([]Coin, error)

	// PushHeader appends one header to the log at height.
	PushHeader(ctx context.Context, hexHeader string, height int64) error

	// PopHeader removes the last header from the log.
	PopHeader(ctx context.Context) error

	// GetAllHeaders returns every header in height order.
	GetAllHeaders(ctx context.Context) ([]string, error)

	// Close releases any resources held by the driver.
	Close() error
}
