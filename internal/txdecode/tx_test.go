package txdecode

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/walletcore/chainsync/internal/codec"
)

// buildLegacyTx builds a minimal legacy (non-segwit) transaction with one
// input spending (prevTxID, prevIndex) and one output paying value to
// pkScript.
func buildLegacyTx(t *testing.T, prevTxIDHex string, prevIndex uint32, value int64, pkScript []byte) []byte {
	t.Helper()
	prevHash, err := codec.HexToHash(prevTxIDHex)
	if err != nil {
		t.Fatalf("bad prev txid fixture: %v", err)
	}
	var buf bytes.Buffer

	writeU32 := func(v uint32) {
		buf.WriteByte(byte(v))
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v >> 16))
		buf.WriteByte(byte(v >> 24))
	}
	writeI64 := func(v int64) {
		for i := 0; i < 8; i++ {
			buf.WriteByte(byte(v >> (8 * i)))
		}
	}

	writeU32(1) // version
	buf.WriteByte(1) // input count
	buf.Write(prevHash[:]) // prevout hash in internal byte order
	writeU32(prevIndex)
	buf.WriteByte(0) // empty scriptSig
	writeU32(0xffffffff) // sequence

	buf.WriteByte(1) // output count
	writeI64(value)
	buf.WriteByte(byte(len(pkScript)))
	buf.Write(pkScript)

	writeU32(0) // locktime
	return buf.Bytes()
}

func TestParse_LegacyTransaction(t *testing.T) {
	prevTxID := "0000000000000000000000000000000000000000000000000000000000000001"
	pkScript := []byte{0x76, 0xa9, 0x14}
	pkScript = append(pkScript, bytes.Repeat([]byte{0xaa}, 20)...)
	pkScript = append(pkScript, 0x88, 0xac)

	raw := buildLegacyTx(t, prevTxID, 0, 5000000000, pkScript)

	tx, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tx.Inputs) != 1 || len(tx.Outputs) != 1 {
		t.Fatalf("unexpected shape: %+v", tx)
	}
	if tx.Inputs[0].PrevTxID != prevTxID {
		t.Errorf("prev txid = %s, want %s", tx.Inputs[0].PrevTxID, prevTxID)
	}
	if tx.Outputs[0].Value != 5000000000 {
		t.Errorf("value = %d, want 5000000000", tx.Outputs[0].Value)
	}
	if !bytes.Equal(tx.Outputs[0].PkScript, pkScript) {
		t.Error("pkScript mismatch")
	}
	if tx.IsCoinbase() {
		t.Error("should not be coinbase")
	}
	if tx.TxID() == "" {
		t.Error("expected non-empty txid")
	}
}

func TestParse_Coinbase(t *testing.T) {
	raw := buildLegacyTx(t, codec.ZeroHashHex, 0xffffffff, 5000000000, []byte{0x51})
	tx, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !tx.IsCoinbase() {
		t.Error("expected coinbase transaction")
	}
}

func TestParse_Truncated(t *testing.T) {
	if _, err := Parse([]byte{0x01, 0x00, 0x00}); err == nil {
		t.Error("expected error on truncated input")
	}
}

func TestParse_HexFixtureDecodes(t *testing.T) {
	prevTxID := "00000000000000000000000000000000000000000000000000000000000000ab"
	raw := buildLegacyTx(t, prevTxID, 3, 100, []byte{0x6a})
	hexStr := hex.EncodeToString(raw)
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	tx, err := Parse(decoded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tx.Inputs[0].PrevIndex != 3 {
		t.Errorf("prev index = %d, want 3", tx.Inputs[0].PrevIndex)
	}
}
