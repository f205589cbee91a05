package mempool

import (
	"testing"

	"github.com/walletcore/chainsync/internal/storage"
)

func TestOverlay_SeenAndMarkSeen(t *testing.T) {
	o := New()
	if o.Seen("tx1") {
		t.Error("fresh overlay should not have seen tx1")
	}
	o.MarkSeen("tx1")
	if !o.Seen("tx1") {
		t.Error("expected tx1 to be seen after MarkSeen")
	}
}

func TestOverlay_GetCoins_AppendsUnconfirmedAndAppliesSpend(t *testing.T) {
	o := New()
	o.RecordOutput("tx1", 0, "addrA", 1000)
	o.RecordSpend("tx1", 0, "tx2")

	coins := o.GetCoins(nil, "addrA")
	if len(coins) != 1 {
		t.Fatalf("coins = %+v, want one", coins)
	}
	c := coins[0]
	if c.CHeight != 0 || c.CValue != 1000 || c.STxID != "tx2" || c.SHeight != 0 {
		t.Fatalf("unexpected coin: %+v", c)
	}
}

func TestOverlay_GetCoins_MergesWithStorageList(t *testing.T) {
	o := New()
	o.RecordOutput("tx2", 0, "addrA", 500)

	storageCoins := []storage.Coin{{CTxID: "tx1", CIndex: 0, Address: "addrA", CValue: 2000, CHeight: 10}}
	coins := o.GetCoins(storageCoins, "addrA")
	if len(coins) != 2 {
		t.Fatalf("coins = %+v, want two", coins)
	}
}

func TestOverlay_AddressOf(t *testing.T) {
	o := New()
	if got := o.AddressOf("tx1", 0); got != "" {
		t.Errorf("AddressOf unknown = %q, want empty", got)
	}
	o.RecordOutput("tx1", 0, "addrA", 100)
	if got := o.AddressOf("tx1", 0); got != "addrA" {
		t.Errorf("AddressOf = %q, want addrA", got)
	}
}
