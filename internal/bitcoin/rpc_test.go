package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMockRPC_GetInfo(t *testing.T) {
	mock := NewMockRPC()
	mock.Info = Info{Testnet: true}
	ctx := context.Background()

	info, err := mock.GetInfo(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Testnet {
		t.Error("expected Testnet = true")
	}
}

func TestMockRPC_GetInfo_Error(t *testing.T) {
	mock := NewMockRPC()
	mock.InfoErr = fmt.Errorf("connection refused")
	ctx := context.Background()

	if _, err := mock.GetInfo(ctx); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestMockRPC_GetBlockCount(t *testing.T) {
	mock := NewMockRPC()
	mock.BlockCount = 799999
	ctx := context.Background()

	count, err := mock.GetBlockCount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 799999 {
		t.Errorf("block count = %d, want 799999", count)
	}
}

func TestMockRPC_GetBlockHashAndBlock(t *testing.T) {
	mock := NewMockRPC()
	mock.BlockHashes[100] = "hash100"
	mock.Blocks["hash100"] = Block{Hash: "hash100", Height: 100, PreviousBlockHash: "hash99", Tx: []string{"tx1", "tx2"}}
	ctx := context.Background()

	hash, err := mock.GetBlockHash(ctx, 100)
	if err != nil || hash != "hash100" {
		t.Fatalf("GetBlockHash = %q, %v; want hash100, nil", hash, err)
	}

	block, err := mock.GetBlock(ctx, hash)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if block.Height != 100 || len(block.Tx) != 2 {
		t.Fatalf("block = %+v", block)
	}
}

func TestMockRPC_GetRawTransactions(t *testing.T) {
	mock := NewMockRPC()
	mock.RawTxs["tx1"] = "raw1"
	mock.RawTxs["tx2"] = "raw2"
	ctx := context.Background()

	raws, err := mock.GetRawTransactions(ctx, []string{"tx1", "tx2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 2 || raws[0] != "raw1" || raws[1] != "raw2" {
		t.Fatalf("raws = %v", raws)
	}
}

func TestMockRPC_SendRawTransaction(t *testing.T) {
	mock := NewMockRPC()
	ctx := context.Background()

	txID, err := mock.SendRawTransaction(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txID != "deadbeef" || len(mock.SentRaw) != 1 {
		t.Fatalf("SendRawTransaction = %q, sent=%v", txID, mock.SentRaw)
	}
}

func TestRPCError(t *testing.T) {
	err := &RPCError{Code: -1, Message: "test error"}
	if err.Error() != "RPC error -1: test error" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*RPCClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := NewRPCClient(server.URL, "user", "pass", 1000, 1000)
	return client, server.Close
}

func TestRPCClient_GetBlockCount(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := RPCResponse{JSONRPC: "1.0", ID: float64(1), Result: json.RawMessage(`800000`)}
		_ = json.NewEncoder(w).Encode(resp)
	})
	defer closeFn()

	count, err := client.GetBlockCount(context.Background())
	if err != nil {
		t.Fatalf("GetBlockCount: %v", err)
	}
	if count != 800000 {
		t.Errorf("count = %d, want 800000", count)
	}
}

func TestRPCClient_GetRawTransactions_Batched(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			t.Fatalf("decode batch request: %v", err)
		}
		if len(reqs) != 2 {
			t.Fatalf("batch size = %d, want 2", len(reqs))
		}
		resps := make([]RPCResponse, len(reqs))
		for i, req := range reqs {
			txID := req.Params[0].(string)
			resps[i] = RPCResponse{ID: req.ID, Result: json.RawMessage(fmt.Sprintf("%q", "raw-"+txID))}
		}
		_ = json.NewEncoder(w).Encode(resps)
	})
	defer closeFn()

	raws, err := client.GetRawTransactions(context.Background(), []string{"tx1", "tx2"})
	if err != nil {
		t.Fatalf("GetRawTransactions: %v", err)
	}
	if len(raws) != 2 || raws[0] != "raw-tx1" || raws[1] != "raw-tx2" {
		t.Fatalf("raws = %v", raws)
	}
}

func TestRPCClient_ErrorResponse(t *testing.T) {
	client, closeFn := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := RPCResponse{ID: float64(1), Error: &RPCError{Code: -5, Message: "no such tx"}}
		_ = json.NewEncoder(w).Encode(resp)
	})
	defer closeFn()

	_, err := client.GetRawTransaction(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
