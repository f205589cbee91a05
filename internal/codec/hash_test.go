package codec

import "testing"

func TestHashToHexRoundTrip(t *testing.T) {
	data := []byte("block header bytes")
	h := DoubleSHA256(data)

	hexStr := HashToHex(h)
	back, err := HexToHash(hexStr)
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if back != h {
		t.Errorf("round trip mismatch: got %x, want %x", back, h)
	}
}

func TestZeroHashHexLength(t *testing.T) {
	if len(ZeroHashHex) != 64 {
		t.Errorf("ZeroHashHex length = %d, want 64", len(ZeroHashHex))
	}
}
