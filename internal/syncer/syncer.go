// Package syncer is the synchronizer core (C6/C7): the catchUp state
// machine, block import/revert, and the 5-second main iteration that
// chains catchUp to updateMempool. It owns the header chunk cache and
// the mempool overlay and is the only task that ever writes to storage.
package syncer

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/walletcore/chainsync/internal/address"
	"github.com/walletcore/chainsync/internal/bitcoin"
	"github.com/walletcore/chainsync/internal/codec"
	"github.com/walletcore/chainsync/internal/events"
	"github.com/walletcore/chainsync/internal/headerchain"
	"github.com/walletcore/chainsync/internal/mempool"
	"github.com/walletcore/chainsync/internal/metrics"
	"github.com/walletcore/chainsync/internal/storage"
	"github.com/walletcore/chainsync/internal/synerr"
	"github.com/walletcore/chainsync/internal/txdecode"
)

// pollInterval is the main iteration's catchUp/updateMempool cadence
// (spec §4.7).
const pollInterval = 5 * time.Second

// Synchronizer is the single logical task described in spec §5: one
// header cache, one storage handle, one mempool overlay, serialized by
// construction since Run never starts a second iteration concurrently.
type Synchronizer struct {
	rpc     bitcoin.NodeRPC
	store   storage.Store
	headers *headerchain.Cache
	net     address.Network
	pub     *events.Publisher
	logger  *zap.Logger

	mu      sync.Mutex
	overlay *mempool.Overlay

	interrupted atomic.Bool
}

// New constructs a Synchronizer and registers its own newHeight handler
// so the mempool overlay is cleared exactly once per emitted newHeight,
// before any later updateMempool call (spec §5 ordering guarantee).
func New(rpc bitcoin.NodeRPC, store storage.Store, net address.Network, pub *events.Publisher, logger *zap.Logger) *Synchronizer {
	s := &Synchronizer{
		rpc:     rpc,
		store:   store,
		headers: headerchain.New(),
		net:     net,
		pub:     pub,
		logger:  logger,
		overlay: mempool.New(),
	}
	pub.OnNewHeight(s.resetMempool)
	return s
}

func (s *Synchronizer) resetMempool() {
	s.mu.Lock()
	s.overlay = mempool.New()
	s.mu.Unlock()
}

func (s *Synchronizer) mempoolOverlay() *mempool.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// Initialize validates the node matches the configured network,
// replays the storage header log into the in-memory chunk cache, and
// prepares the storage schema. Handlers must already be registered on
// pub before this returns (spec §6).
func (s *Synchronizer) Initialize(ctx context.Context) error {
	if err := s.store.Initialize(ctx); err != nil {
		return &synerr.StorageError{Op: "initialize", Err: err}
	}

	info, err := s.rpc.GetInfo(ctx)
	if err != nil {
		return err
	}
	wantTestnet := s.net != address.Mainnet
	if info.Testnet != wantTestnet {
		return &synerr.ConfigError{Field: "server.network", Value: s.net.String()}
	}

	hexHeaders, err := s.store.GetAllHeaders(ctx)
	if err != nil {
		return &synerr.StorageError{Op: "getAllHeaders", Err: err}
	}
	for _, h := range hexHeaders {
		if err := s.headers.PushHeader(h); err != nil {
			return &synerr.DecodeError{What: "stored header", Err: err}
		}
	}
	return nil
}

// RequestStop sets the cooperative interrupt flag observed by CatchUp
// between block iterations (spec §4.2/§5).
func (s *Synchronizer) RequestStop() {
	s.interrupted.Store(true)
}

func (s *Synchronizer) stopRequested() bool {
	return s.interrupted.Load()
}

// Run executes the main iteration (spec §4.7): every pollInterval, run
// CatchUp then UpdateMempool. Errors from either are logged and
// swallowed so the loop continues. Run returns when ctx is done.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Synchronizer) runOnce(ctx context.Context) {
	if err := s.CatchUp(ctx); err != nil {
		s.logger.Warn("catchUp failed", zap.Error(err))
	}
	if err := s.UpdateMempool(ctx); err != nil {
		s.logger.Warn("updateMempool failed", zap.Error(err))
	}
}

// UpdateMempool runs one cycle of the mempool overlay update (spec
// §4.4) against whichever overlay instance is currently live.
func (s *Synchronizer) UpdateMempool(ctx context.Context) error {
	overlay := s.mempoolOverlay()
	if err := overlay.Update(ctx, s.rpc, s.store, s.net, s.pub); err != nil {
		return err
	}
	metrics.MempoolSize.Set(float64(overlay.Len()))
	return nil
}

// CatchUp runs the catchUp state machine (spec §4.2) until the local
// tip matches the node's, the interrupt flag is observed, or an error
// occurs.
func (s *Synchronizer) CatchUp(ctx context.Context) error {
	for {
		if s.stopRequested() {
			return nil
		}

		tipCount, err := s.rpc.GetBlockCount(ctx)
		if err != nil {
			return err
		}
		tipHash, err := s.rpc.GetBlockHash(ctx, tipCount)
		if err != nil {
			return err
		}
		if tipHash == s.headers.LastBlockHash() {
			return nil // CAUGHT_UP
		}

		nextHash, err := s.rpc.GetBlockHash(ctx, int64(s.headers.GetBlockCount()))
		if err != nil {
			return err
		}
		next, err := s.getFullBlock(ctx, nextHash)
		if err != nil {
			return err
		}

		if next.Block.PreviousBlockHash == s.headers.LastBlockHash() {
			if err := s.applyImport(ctx, next); err != nil {
				return err
			}
		} else {
			current, err := s.getFullBlock(ctx, s.headers.LastBlockHash())
			if err != nil {
				return err
			}
			if err := s.applyRevert(ctx, current); err != nil {
				return err
			}
		}

		s.pub.PublishNewHeight()
	}
}

// fullBlock is a block's metadata plus its ordered, parsed transactions
// (the getFullBlock result of spec §4.2).
type fullBlock struct {
	Block bitcoin.Block
	Txs   []*txdecode.Tx
}

func (s *Synchronizer) getFullBlock(ctx context.Context, hash string) (fullBlock, error) {
	block, err := s.rpc.GetBlock(ctx, hash)
	if err != nil {
		return fullBlock{}, err
	}

	if block.Height == 0 {
		block.Tx = nil
		block.PreviousBlockHash = codec.ZeroHashHex
		return fullBlock{Block: block}, nil
	}

	raws, err := s.rpc.GetRawTransactions(ctx, block.Tx)
	if err != nil {
		return fullBlock{}, err
	}

	txs := make([]*txdecode.Tx, len(raws))
	for i, raw := range raws {
		rawBytes, err := hex.DecodeString(raw)
		if err != nil {
			return fullBlock{}, &synerr.DecodeError{What: "block " + hash + " tx " + block.Tx[i], Err: err}
		}
		tx, err := txdecode.Parse(rawBytes)
		if err != nil {
			return fullBlock{}, &synerr.DecodeError{What: "block " + hash + " tx " + block.Tx[i], Err: err}
		}
		txs[i] = tx
	}
	return fullBlock{Block: block, Txs: txs}, nil
}
