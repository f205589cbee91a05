package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// DoubleSHA256 computes SHA256(SHA256(data)), the consensus hash used for
// txids and block hashes.
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// ReverseBytes returns a new slice with bytes reversed.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// HashToHex returns the byte-reversed hex string of a hash, the Bitcoin
// display convention for txids and block hashes.
func HashToHex(hash [32]byte) string {
	return hex.EncodeToString(ReverseBytes(hash[:]))
}

// HexToHash converts a display-order (byte-reversed) hex string back to a
// [32]byte internal-order hash.
func HexToHash(s string) ([32]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, err
	}
	if len(b) != 32 {
		return [32]byte{}, hex.ErrLength
	}
	var h [32]byte
	copy(h[:], ReverseBytes(b))
	return h, nil
}

// ZeroHash is the all-zero internal-order hash: the previous-block-hash of
// genesis, and the last-block-hash of an empty header chain.
var ZeroHash [32]byte

// ZeroHashHex is the display-order hex form of ZeroHash.
var ZeroHashHex = HashToHex(ZeroHash)
