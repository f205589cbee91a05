package address

import "github.com/walletcore/chainsync/internal/synerr"

// Network selects the version bytes used for base58check address encoding.
type Network int

const (
	Mainnet Network = iota
	Testnet
	Regtest
)

// ParseNetwork maps the server.network configuration value to a Network,
// failing with a *synerr.ConfigError on anything unrecognized.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	default:
		return 0, &synerr.ConfigError{Field: "server.network", Value: s}
	}
}

// P2PKHVersion returns the version byte prefixed to a pay-to-pubkey-hash
// address before base58check encoding.
func (n Network) P2PKHVersion() byte {
	switch n {
	case Testnet, Regtest:
		return 0x6f
	default:
		return 0x00
	}
}

// P2SHVersion returns the version byte prefixed to a pay-to-script-hash
// address before base58check encoding.
func (n Network) P2SHVersion() byte {
	switch n {
	case Testnet, Regtest:
		return 0xc4
	default:
		return 0x05
	}
}

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}
