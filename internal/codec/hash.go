// Package codec holds the hash and encoding primitives shared by the rest
// of the synchronizer: the consensus double-SHA256 hash and the
// byte-reversed hex display convention used for txids and block hashes.
package codec

import (
	"github.com/walletcore/chainsync/pkg/util"
)

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) [32]byte {
	return util.DoubleSHA256(data)
}

// HashToHex returns the byte-reversed hex string of a hash (the display
// convention for txids and block hashes).
func HashToHex(hash [32]byte) string {
	return util.HashToHex(hash)
}

// HexToHash parses a byte-reversed display hex string back into internal
// byte order.
func HexToHash(s string) ([32]byte, error) {
	return util.HexToHash(s)
}

// ZeroHashHex is the display form of the all-zero hash: the last block
// hash of an empty header chain, and the previous-block-hash of genesis.
var ZeroHashHex = util.ZeroHashHex
