// Package headerchain implements the header-chunk cache (C4): an
// in-memory representation of the header chain partitioned into
// fixed-size chunks, with push/pop/lookup and the derived last-block-hash.
package headerchain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/walletcore/chainsync/internal/codec"
)

// HeaderSize is the fixed raw byte size of a block header.
const HeaderSize = 80

// ChunkSize is the number of headers per chunk: matches the
// difficulty-retarget boundary used by client sync protocols, so
// getChunk(i) can be handed back verbatim as a protocol frame.
const ChunkSize = 2016

// Header is the fixed 80-byte block header record.
type Header struct {
	Version       int32
	PrevBlockHash [32]byte
	MerkleRoot    [32]byte
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Serialize returns the raw 80-byte header.
func (h Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Hex returns the 160-char hex form of the serialized header.
func (h Header) Hex() string {
	return hex.EncodeToString(h.Serialize())
}

// Hash computes the header's double-SHA256 hash.
func (h Header) Hash() [32]byte {
	return codec.DoubleSHA256(h.Serialize())
}

// ParseHeader decodes a raw 80-byte header.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) != HeaderSize {
		return Header{}, fmt.Errorf("header: want %d bytes, got %d", HeaderSize, len(raw))
	}
	var h Header
	h.Version = int32(binary.LittleEndian.Uint32(raw[0:4]))
	copy(h.PrevBlockHash[:], raw[4:36])
	copy(h.MerkleRoot[:], raw[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(raw[68:72])
	h.Bits = binary.LittleEndian.Uint32(raw[72:76])
	h.Nonce = binary.LittleEndian.Uint32(raw[76:80])
	return h, nil
}

// ParseHeaderHex decodes a 160-character hex header.
func ParseHeaderHex(hexStr string) (Header, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return Header{}, fmt.Errorf("header: bad hex: %w", err)
	}
	return ParseHeader(raw)
}
