// Package merkle computes Merkle inclusion proofs for a transaction
// within a block (C9), on demand for the front-end. It folds txid
// levels pairwise, the same construction smythg4-go-bitcoin's
// MerkleParent/MerkleParentLevel use to compute a root, but collects
// the sibling at each level instead of discarding it.
package merkle

import "github.com/walletcore/chainsync/internal/codec"

// Proof is a transaction's Merkle inclusion proof: the sibling hash at
// each level (byte-reversed display hex, leaf to root) and the
// transaction's position in the block's original txid list. Position
// is -1 if txHash was not found.
type Proof struct {
	Siblings []string
	Position int
}

// Build computes the Merkle proof for txHash within the ordered list
// of a block's txids (both given and returned in the usual
// byte-reversed display-hex form).
func Build(blockTxIDs []string, txHash string) Proof {
	level := make([][32]byte, len(blockTxIDs))
	target := -1
	for i, id := range blockTxIDs {
		if id == txHash {
			target = i
		}
		hash, err := codec.HexToHash(id)
		if err != nil {
			continue
		}
		level[i] = hash
	}

	proof := Proof{Position: target}
	if len(level) == 0 {
		return proof
	}

	targetIdx := target
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = parent(level[i], level[i+1])
			if targetIdx == i {
				proof.Siblings = append(proof.Siblings, codec.HashToHex(level[i+1]))
				targetIdx = i / 2
			} else if targetIdx == i+1 {
				proof.Siblings = append(proof.Siblings, codec.HashToHex(level[i]))
				targetIdx = i / 2
			}
		}
		level = next
	}

	return proof
}

func parent(l, r [32]byte) [32]byte {
	combined := make([]byte, 0, 64)
	combined = append(combined, l[:]...)
	combined = append(combined, r[:]...)
	return codec.DoubleSHA256(combined)
}
