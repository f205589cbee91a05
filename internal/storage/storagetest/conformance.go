// Package storagetest provides a conformance suite shared by every
// storage.Store driver's tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/walletcore/chainsync/internal/storage"
)

// RunConformanceSuite exercises the full Store capability set against any
// driver implementation, so each driver's _test.go file can assert it
// satisfies the same contract with one call.
func RunConformanceSuite(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("InitializeIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("second Initialize: %v", err)
		}
	})

	t.Run("AddGetRemoveCoin", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		_ = s.Initialize(ctx)

		if err := s.AddCoin(ctx, "addrA", "tx1", 0, 5000, 100); err != nil {
			t.Fatalf("AddCoin: %v", err)
		}
		addr, ok, err := s.GetAddress(ctx, "tx1", 0)
		if err != nil || !ok || addr != "addrA" {
			t.Fatalf("GetAddress = %q, %v, %v; want addrA, true, nil", addr, ok, err)
		}

		coins, err := s.GetCoins(ctx, "addrA")
		if err != nil {
			t.Fatalf("GetCoins: %v", err)
		}
		if len(coins) != 1 || coins[0].CValue != 5000 || coins[0].Spent() {
			t.Fatalf("GetCoins = %+v, want one unspent 5000 coin", coins)
		}

		if err := s.RemoveCoin(ctx, "tx1", 0); err != nil {
			t.Fatalf("RemoveCoin: %v", err)
		}
		if _, ok, _ := s.GetAddress(ctx, "tx1", 0); ok {
			t.Error("expected coin to be gone after RemoveCoin")
		}
	})

	t.Run("SetSpentAndUnspent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		_ = s.Initialize(ctx)

		_ = s.AddCoin(ctx, "addrB", "tx2", 1, 1000, 50)
		if err := s.SetSpent(ctx, "tx2", 1, "tx3", 51); err != nil {
			t.Fatalf("SetSpent: %v", err)
		}
		coins, _ := s.GetCoins(ctx, "addrB")
		if len(coins) != 1 || !coins[0].Spent() || coins[0].STxID != "tx3" || coins[0].SHeight != 51 {
			t.Fatalf("after SetSpent: %+v", coins)
		}

		if err := s.SetUnspent(ctx, "tx2", 1); err != nil {
			t.Fatalf("SetUnspent: %v", err)
		}
		coins, _ = s.GetCoins(ctx, "addrB")
		if len(coins) != 1 || coins[0].Spent() {
			t.Fatalf("after SetUnspent: %+v", coins)
		}
	})

	t.Run("HeaderLog", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		_ = s.Initialize(ctx)

		headers, err := s.GetAllHeaders(ctx)
		if err != nil || len(headers) != 0 {
			t.Fatalf("expected empty header log, got %v, %v", headers, err)
		}

		if err := s.PushHeader(ctx, "aa", 0); err != nil {
			t.Fatalf("PushHeader: %v", err)
		}
		if err := s.PushHeader(ctx, "bb", 1); err != nil {
			t.Fatalf("PushHeader: %v", err)
		}
		headers, err = s.GetAllHeaders(ctx)
		if err != nil {
			t.Fatalf("GetAllHeaders: %v", err)
		}
		if len(headers) != 2 || headers[0] != "aa" || headers[1] != "bb" {
			t.Fatalf("headers = %v, want [aa bb]", headers)
		}

		if err := s.PopHeader(ctx); err != nil {
			t.Fatalf("PopHeader: %v", err)
		}
		headers, _ = s.GetAllHeaders(ctx)
		if len(headers) != 1 || headers[0] != "aa" {
			t.Fatalf("headers after pop = %v, want [aa]", headers)
		}
	})

	t.Run("GetAddressUnknownCoin", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		_ = s.Initialize(ctx)

		if _, ok, err := s.GetAddress(ctx, "nonexistent", 0); ok || err != nil {
			t.Errorf("expected (false, nil) for unknown coin, got (%v, %v)", ok, err)
		}
	})
}
