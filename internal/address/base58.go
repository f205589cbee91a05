package address

import (
	"math/big"
	"strings"

	"github.com/walletcore/chainsync/internal/codec"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// encodeBase58 encodes raw bytes using the Bitcoin base58 alphabet,
// preserving one '1' per leading zero byte.
func encodeBase58(data []byte) string {
	count := 0
	for _, b := range data {
		if b != 0 {
			break
		}
		count++
	}

	num := new(big.Int).SetBytes(data)
	fiftyEight := big.NewInt(58)
	mod := new(big.Int)

	var result strings.Builder
	digits := make([]byte, 0, len(data)*2)
	for num.Sign() > 0 {
		num.DivMod(num, fiftyEight, mod)
		digits = append(digits, base58Alphabet[mod.Int64()])
	}
	for i := len(digits) - 1; i >= 0; i-- {
		result.WriteByte(digits[i])
	}

	return strings.Repeat("1", count) + result.String()
}

// encodeBase58Check appends a 4-byte double-SHA256 checksum and base58
// encodes the result; used for P2PKH and P2SH address strings.
func encodeBase58Check(versionAndPayload []byte) string {
	sum := codec.DoubleSHA256(versionAndPayload)
	return encodeBase58(append(append([]byte{}, versionAndPayload...), sum[:4]...))
}
