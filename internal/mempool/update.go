package mempool

import (
	"context"
	"encoding/hex"

	"github.com/walletcore/chainsync/internal/address"
	"github.com/walletcore/chainsync/internal/bitcoin"
	"github.com/walletcore/chainsync/internal/events"
	"github.com/walletcore/chainsync/internal/storage"
	"github.com/walletcore/chainsync/internal/synerr"
	"github.com/walletcore/chainsync/internal/txdecode"
)

type pendingTouch struct {
	txID  string
	index uint32
}

// Update runs one cycle of updateMempool (spec §4.4): fetch the node's
// mempool, process every transaction not already seen this cycle, and
// emit one touchedAddress per unique address resolved along the way.
// Non-goal: topological ordering — children may be processed before
// their parents; unresolved parent outputs simply widen the touched
// set on a later cycle.
func (o *Overlay) Update(ctx context.Context, rpc bitcoin.NodeRPC, store storage.Store, net address.Network, pub *events.Publisher) error {
	txIDs, err := rpc.GetRawMempool(ctx)
	if err != nil {
		return &synerr.RpcError{Method: "getrawmempool", Err: err}
	}

	touched := make(map[string]struct{})
	var pending []pendingTouch

	for _, txID := range txIDs {
		if o.Seen(txID) {
			continue
		}
		o.MarkSeen(txID)

		raw, err := rpc.GetRawTransaction(ctx, txID)
		if err != nil {
			return &synerr.RpcError{Method: "getrawtransaction", Err: err}
		}
		rawBytes, err := hex.DecodeString(raw)
		if err != nil {
			return &synerr.DecodeError{What: "mempool tx " + txID, Err: err}
		}
		tx, err := txdecode.Parse(rawBytes)
		if err != nil {
			return &synerr.DecodeError{What: "mempool tx " + txID, Err: err}
		}

		for _, in := range tx.Inputs {
			o.RecordSpend(in.PrevTxID, in.PrevIndex, txID)
			pending = append(pending, pendingTouch{in.PrevTxID, in.PrevIndex})
		}
		for j, out := range tx.Outputs {
			addr := address.ToAddress(out.PkScript, net)
			if addr == "" {
				continue
			}
			o.RecordOutput(txID, uint32(j), addr, out.Value)
			touched[addr] = struct{}{}
		}
	}

	for _, p := range pending {
		addr, ok, err := o.GetAddress(ctx, store, p.txID, p.index)
		if err != nil {
			return &synerr.StorageError{Op: "getAddress", Err: err}
		}
		if !ok {
			continue
		}
		touched[addr] = struct{}{}
	}

	for addr := range touched {
		pub.PublishTouchedAddress(addr)
	}
	return nil
}
