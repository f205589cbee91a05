package headerchain

import (
	"testing"

	"github.com/walletcore/chainsync/internal/codec"
)

func testHeader(t *testing.T, nonce uint32, prev [32]byte) Header {
	t.Helper()
	return Header{
		Version:       1,
		PrevBlockHash: prev,
		MerkleRoot:    [32]byte{1, 2, 3},
		Timestamp:     1700000000,
		Bits:          0x1d00ffff,
		Nonce:         nonce,
	}
}

func TestCache_EmptyLastBlockHash(t *testing.T) {
	c := New()
	if c.LastBlockHash() != codec.ZeroHashHex {
		t.Errorf("empty cache last hash = %s, want zero hash", c.LastBlockHash())
	}
	if c.GetBlockCount() != 0 {
		t.Error("expected zero headers")
	}
}

func TestCache_PushAndGetHeader(t *testing.T) {
	c := New()
	h := testHeader(t, 1, [32]byte{})
	if err := c.PushHeader(h.Hex()); err != nil {
		t.Fatalf("PushHeader: %v", err)
	}
	if c.GetBlockCount() != 1 {
		t.Fatalf("block count = %d, want 1", c.GetBlockCount())
	}
	got, err := c.GetHeader(0)
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if got != h.Hex() {
		t.Errorf("GetHeader(0) = %s, want %s", got, h.Hex())
	}

	wantHash := codec.HashToHex(h.Hash())
	if c.LastBlockHash() != wantHash {
		t.Errorf("lastBlockHash = %s, want %s", c.LastBlockHash(), wantHash)
	}
}

func TestCache_PopHeader(t *testing.T) {
	c := New()
	h := testHeader(t, 1, [32]byte{})
	_ = c.PushHeader(h.Hex())
	if err := c.PopHeader(); err != nil {
		t.Fatalf("PopHeader: %v", err)
	}
	if c.GetBlockCount() != 0 {
		t.Error("expected zero headers after pop")
	}
	if c.LastBlockHash() != codec.ZeroHashHex {
		t.Error("expected zero hash after popping the only header")
	}
}

func TestCache_PopEmpty(t *testing.T) {
	c := New()
	if err := c.PopHeader(); err == nil {
		t.Error("expected RangeError popping an empty cache")
	}
}

func TestCache_OutOfRange(t *testing.T) {
	c := New()
	if _, err := c.GetHeader(0); err == nil {
		t.Error("expected RangeError for GetHeader on empty cache")
	}
	if _, err := c.GetChunk(0); err == nil {
		t.Error("expected RangeError for GetChunk on empty cache")
	}
}

func TestCache_ChunkBoundary(t *testing.T) {
	c := New()
	prev := [32]byte{}
	var lastHex string
	for i := 0; i < ChunkSize+1; i++ {
		h := testHeader(t, uint32(i), prev)
		lastHex = h.Hex()
		if err := c.PushHeader(lastHex); err != nil {
			t.Fatalf("PushHeader(%d): %v", i, err)
		}
		prev = h.Hash()
	}

	if c.GetBlockCount() != ChunkSize+1 {
		t.Fatalf("block count = %d, want %d", c.GetBlockCount(), ChunkSize+1)
	}
	if len(c.chunks) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(c.chunks))
	}
	if len(c.chunks[0])/HeaderSize != ChunkSize {
		t.Errorf("chunk 0 headers = %d, want %d", len(c.chunks[0])/HeaderSize, ChunkSize)
	}
	if len(c.chunks[1])/HeaderSize != 1 {
		t.Errorf("chunk 1 headers = %d, want 1", len(c.chunks[1])/HeaderSize)
	}

	got, err := c.GetHeader(ChunkSize)
	if err != nil {
		t.Fatalf("GetHeader(%d): %v", ChunkSize, err)
	}
	if got != lastHex {
		t.Errorf("GetHeader(%d) = %s, want %s", ChunkSize, got, lastHex)
	}

	chunk0, err := c.GetChunk(0)
	if err != nil {
		t.Fatalf("GetChunk(0): %v", err)
	}
	if len(chunk0) != ChunkSize*HeaderSize*2 {
		t.Errorf("GetChunk(0) hex length = %d, want %d", len(chunk0), ChunkSize*HeaderSize*2)
	}
}
