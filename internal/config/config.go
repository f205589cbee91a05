// Package config is the synchronizer's configuration loader (A1),
// recognizing the options spec §6 lists: server.network, server.storage,
// and the bitcoind RPC endpoint. Grounded on the naoina/toml loading
// idiom (field-name-preserving decoder, file-name-annotated line
// errors) used by ethereum-mive-mive's cmd/mive/config.go.
package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"

	"github.com/walletcore/chainsync/internal/address"
	"github.com/walletcore/chainsync/internal/synerr"
)

// Server holds the server.* configuration options.
type Server struct {
	Network string
	Storage string
}

// Bitcoind holds the node RPC endpoint configuration.
type Bitcoind struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Config is the full recognized configuration shape.
type Config struct {
	Server   Server
	Bitcoind Bitcoind
}

// tomlSettings preserves Go struct field names as TOML keys, matching
// the config file's [Server] / [Bitcoind] section and field names
// verbatim instead of lower-casing them.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field %q is not defined in %s", field, rt.String())
	},
}

// Load reads and decodes a TOML configuration file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, &synerr.ConfigError{Field: "path", Value: path}
	}
	defer f.Close()

	var cfg Config
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if lineErr, ok := err.(*toml.LineError); ok {
			return Config{}, &synerr.ConfigError{Field: path, Value: lineErr.Error()}
		}
		return Config{}, &synerr.ConfigError{Field: path, Value: err.Error()}
	}
	return cfg, nil
}

// Network resolves server.network, failing with a *synerr.ConfigError
// on an unrecognized value.
func (c Config) Network() (address.Network, error) {
	return address.ParseNetwork(c.Server.Network)
}

// RPCURL builds the bitcoind JSON-RPC endpoint URL from Host and Port.
func (c Config) RPCURL() string {
	return fmt.Sprintf("http://%s:%d", c.Bitcoind.Host, c.Bitcoind.Port)
}

// validStorageDrivers enumerates server.storage selectors the
// synchronizer knows how to construct (spec §6).
var validStorageDrivers = map[string]bool{
	"bolt":    true,
	"leveldb": true,
	"memory":  true,
}

// ValidateStorage fails with a *synerr.ConfigError if server.storage
// names a driver the synchronizer does not recognize.
func (c Config) ValidateStorage() error {
	if !validStorageDrivers[c.Server.Storage] {
		return &synerr.ConfigError{Field: "server.storage", Value: c.Server.Storage}
	}
	return nil
}
