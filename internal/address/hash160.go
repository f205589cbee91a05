package address

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // consensus hash, not a security primitive
)

// hash160 computes RIPEMD160(SHA256(data)), the hash used for pubkey and
// script hashes in P2PKH/P2SH outputs.
func hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}
