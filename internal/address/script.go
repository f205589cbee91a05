package address

import (
	"encoding/binary"
)

// Opcodes relevant to output-script classification. The full opcode table
// is out of scope: the synchronizer only needs to recognize the standard
// output templates, not execute scripts.
const (
	opPushData1 = 0x4c
	opPushData2 = 0x4d
	opPushData4 = 0x4e

	opDup          = 0x76
	opEqual        = 0x87
	opEqualVerify  = 0x88
	opHash160      = 0xa9
	opCheckSig     = 0xac
)

// pushData is one parsed script element: either a data push (IsData) or a
// bare opcode.
type pushData struct {
	Opcode byte
	Data   []byte
	IsData bool
}

// parseScript decodes a scriptPubKey into its push-data/opcode elements.
//
// Malformed (truncated) push opcodes are tolerated: when the declared
// push length overruns the remaining buffer, the missing tail is
// zero-padded rather than treated as an error. Historical chain data
// contains non-standard scripts that rely on this leniency; indexing
// must not halt on them.
func parseScript(raw []byte) []pushData {
	var cmds []pushData
	i := 0
	for i < len(raw) {
		op := raw[i]
		i++
		switch {
		case op >= 1 && op <= 75:
			data, next := readPush(raw, i, int(op))
			cmds = append(cmds, pushData{Data: data, IsData: true})
			i = next
		case op == opPushData1:
			if i >= len(raw) {
				return cmds
			}
			n := int(raw[i])
			i++
			data, next := readPush(raw, i, n)
			cmds = append(cmds, pushData{Data: data, IsData: true})
			i = next
		case op == opPushData2:
			if i+2 > len(raw) {
				return cmds
			}
			n := int(binary.LittleEndian.Uint16(raw[i : i+2]))
			i += 2
			data, next := readPush(raw, i, n)
			cmds = append(cmds, pushData{Data: data, IsData: true})
			i = next
		case op == opPushData4:
			if i+4 > len(raw) {
				return cmds
			}
			n := int(binary.LittleEndian.Uint32(raw[i : i+4]))
			i += 4
			data, next := readPush(raw, i, n)
			cmds = append(cmds, pushData{Data: data, IsData: true})
			i = next
		default:
			cmds = append(cmds, pushData{Opcode: op})
		}
	}
	return cmds
}

// readPush reads n bytes starting at offset from raw, zero-padding any
// portion that runs past the end of the buffer. Returns the (possibly
// padded) data and the offset immediately after the declared push length,
// which may itself be past len(raw).
func readPush(raw []byte, offset, n int) ([]byte, int) {
	data := make([]byte, n)
	avail := len(raw) - offset
	if avail > 0 {
		if avail > n {
			avail = n
		}
		copy(data, raw[offset:offset+avail])
	}
	return data, offset + n
}

// ToAddress classifies a scriptPubKey and returns its canonical address
// string, or "" if the script does not match a recognized output
// template. Recognized: P2PKH, P2SH, bare pay-to-pubkey. Anything else
// (including bech32 segwit outputs, OP_RETURN, multisig) decodes to "".
func ToAddress(scriptPubKey []byte, net Network) string {
	cmds := parseScript(scriptPubKey)

	if isP2PKH(cmds) {
		return encodeBase58Check(append([]byte{net.P2PKHVersion()}, cmds[2].Data...))
	}
	if isP2SH(cmds) {
		return encodeBase58Check(append([]byte{net.P2SHVersion()}, cmds[1].Data...))
	}
	if pubkey, ok := asBarePubkey(cmds); ok {
		return encodeBase58Check(append([]byte{net.P2PKHVersion()}, hash160(pubkey)...))
	}
	return ""
}

// isP2PKH matches: OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
func isP2PKH(cmds []pushData) bool {
	return len(cmds) == 5 &&
		!cmds[0].IsData && cmds[0].Opcode == opDup &&
		!cmds[1].IsData && cmds[1].Opcode == opHash160 &&
		cmds[2].IsData && len(cmds[2].Data) == 20 &&
		!cmds[3].IsData && cmds[3].Opcode == opEqualVerify &&
		!cmds[4].IsData && cmds[4].Opcode == opCheckSig
}

// isP2SH matches: OP_HASH160 <20 bytes> OP_EQUAL
func isP2SH(cmds []pushData) bool {
	return len(cmds) == 3 &&
		!cmds[0].IsData && cmds[0].Opcode == opHash160 &&
		cmds[1].IsData && len(cmds[1].Data) == 20 &&
		!cmds[2].IsData && cmds[2].Opcode == opEqual
}

// asBarePubkey matches: <33 or 65 byte pubkey> OP_CHECKSIG
func asBarePubkey(cmds []pushData) ([]byte, bool) {
	if len(cmds) != 2 {
		return nil, false
	}
	if !cmds[0].IsData || (len(cmds[0].Data) != 33 && len(cmds[0].Data) != 65) {
		return nil, false
	}
	if cmds[1].IsData || cmds[1].Opcode != opCheckSig {
		return nil, false
	}
	return cmds[0].Data, true
}
