// Package txdecode parses raw transaction bytes as returned by
// getrawtransaction into the input/output shape the coin index needs.
// It intentionally stops short of a full transaction model (no witness
// stack contents, no signature parsing) since the synchronizer never
// validates or relays transactions.
package txdecode

import (
	"encoding/binary"
	"fmt"

	"github.com/walletcore/chainsync/internal/codec"
	"github.com/walletcore/chainsync/pkg/util"
)

// TxIn is a transaction input: the coin coordinate it spends.
type TxIn struct {
	// PrevTxID is the byte-reversed (display order) hex txid of the
	// spent output's owning transaction.
	PrevTxID  string
	PrevIndex uint32
}

// TxOut is a transaction output: its value and raw output script.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is a parsed transaction.
type Tx struct {
	Inputs  []TxIn
	Outputs []TxOut

	legacyBytes []byte
}

// TxID returns the byte-reversed hex txid: double-SHA256 of the legacy
// (witness-stripped) serialization.
func (t *Tx) TxID() string {
	h := codec.DoubleSHA256(t.legacyBytes)
	return codec.HashToHex(h)
}

// IsCoinbase reports whether this is a coinbase transaction: exactly one
// input whose prevout is the all-zero hash at index 0xffffffff.
func (t *Tx) IsCoinbase() bool {
	if len(t.Inputs) != 1 {
		return false
	}
	in := t.Inputs[0]
	return in.PrevIndex == 0xffffffff && in.PrevTxID == codec.ZeroHashHex
}

// Parse decodes raw transaction bytes. It supports both the legacy wire
// format and the BIP144 segwit format (marker 0x00, flag 0x01); witness
// data is consumed but discarded, since the coin index only cares about
// prevout coordinates and output scripts/values.
func Parse(raw []byte) (*Tx, error) {
	r := &reader{buf: raw}

	if _, err := r.readUint32(); err != nil { // version
		return nil, fmt.Errorf("parse tx: read version: %w", err)
	}

	segwit := false
	markerPos := r.pos
	if r.pos+2 <= len(r.buf) && r.buf[r.pos] == 0x00 && r.buf[r.pos+1] == 0x01 {
		segwit = true
		r.pos += 2
	}

	inCount, err := r.readVarInt()
	if err != nil {
		return nil, fmt.Errorf("parse tx: input count: %w", err)
	}

	inputs := make([]TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		prevHash, err := r.readBytes(32)
		if err != nil {
			return nil, fmt.Errorf("parse tx: input %d prevout hash: %w", i, err)
		}
		prevIdx, err := r.readUint32()
		if err != nil {
			return nil, fmt.Errorf("parse tx: input %d prevout index: %w", i, err)
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return nil, fmt.Errorf("parse tx: input %d script length: %w", i, err)
		}
		if _, err := r.readBytes(int(scriptLen)); err != nil { // scriptSig, unused
			return nil, fmt.Errorf("parse tx: input %d scriptSig: %w", i, err)
		}
		if _, err := r.readUint32(); err != nil { // sequence
			return nil, fmt.Errorf("parse tx: input %d sequence: %w", i, err)
		}

		var prevHashArr [32]byte
		copy(prevHashArr[:], prevHash)
		inputs = append(inputs, TxIn{
			PrevTxID:  codec.HashToHex(prevHashArr),
			PrevIndex: prevIdx,
		})
	}

	outCount, err := r.readVarInt()
	if err != nil {
		return nil, fmt.Errorf("parse tx: output count: %w", err)
	}
	outputs := make([]TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		value, err := r.readInt64()
		if err != nil {
			return nil, fmt.Errorf("parse tx: output %d value: %w", i, err)
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return nil, fmt.Errorf("parse tx: output %d script length: %w", i, err)
		}
		pkScript, err := r.readBytes(int(scriptLen))
		if err != nil {
			return nil, fmt.Errorf("parse tx: output %d pkScript: %w", i, err)
		}
		outputs = append(outputs, TxOut{Value: value, PkScript: pkScript})
	}

	witnessEnd := r.pos
	if segwit {
		for i := uint64(0); i < inCount; i++ {
			stackLen, err := r.readVarInt()
			if err != nil {
				return nil, fmt.Errorf("parse tx: witness %d stack length: %w", i, err)
			}
			for j := uint64(0); j < stackLen; j++ {
				itemLen, err := r.readVarInt()
				if err != nil {
					return nil, fmt.Errorf("parse tx: witness %d item %d length: %w", i, j, err)
				}
				if _, err := r.readBytes(int(itemLen)); err != nil {
					return nil, fmt.Errorf("parse tx: witness %d item %d: %w", i, j, err)
				}
			}
		}
		witnessEnd = r.pos
	}

	if _, err := r.readUint32(); err != nil { // locktime
		return nil, fmt.Errorf("parse tx: locktime: %w", err)
	}

	legacy := raw
	if segwit {
		legacy = make([]byte, 0, len(raw)-2)
		legacy = append(legacy, raw[:markerPos]...)
		legacy = append(legacy, raw[markerPos+2:witnessEnd]...)
		legacy = append(legacy, raw[r.pos-4:r.pos]...) // locktime
	}

	return &Tx{Inputs: inputs, Outputs: outputs, legacyBytes: legacy}, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("short read: want %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readInt64() (int64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) readVarInt() (uint64, error) {
	v, n, err := util.ReadVarInt(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}
