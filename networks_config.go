package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	networksFileName = "networks.yaml"
)

// NetworksConfig represents the root configuration structure for all
// reachable networks. Exactly one enabled network must be marked default.
type NetworksConfig struct {
	Networks []NetworkConfig `yaml:"networks"`
}

// NetworkConfig describes a single chain endpoint the bridge can serve.
type NetworkConfig struct {
	// Name is the short identifier used for selection (e.g., "cypress")
	Name string `yaml:"name"`
	// ChainID is the numeric chain identifier
	ChainID uint32 `yaml:"chain_id"`
	// RPCURL is the HTTP JSON-RPC endpoint
	RPCURL string `yaml:"rpc_url"`
	// WSURL is the WebSocket endpoint used for subscriptions.
	// Optional; subscriptions are unavailable on networks without it.
	WSURL string `yaml:"ws_url"`
	// Default marks the network selected when none is configured
	Default bool `yaml:"default"`
	// Disabled determines if this network can be selected
	Disabled bool `yaml:"disabled"`
}

// NetworkID renders the chain id in the decimal form the wallet reports.
func (n NetworkConfig) NetworkID() string {
	return strconv.FormatUint(uint64(n.ChainID), 10)
}

// LoadNetworks loads and validates network configurations from
// <configDirPath>/networks.yaml.
func LoadNetworks(configDirPath string) (NetworksConfig, error) {
	networksPath := filepath.Join(configDirPath, networksFileName)
	f, err := os.Open(networksPath)
	if err != nil {
		return NetworksConfig{}, err
	}
	defer f.Close()

	var cfg NetworksConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return NetworksConfig{}, err
	}

	if err := cfg.verifyVariables(); err != nil {
		return NetworksConfig{}, err
	}

	return cfg, nil
}

// verifyVariables validates the configuration structure:
// - names are required and unique among enabled networks
// - chain ids and rpc urls are required for enabled networks
// - exactly one enabled network carries the default flag
func (cfg *NetworksConfig) verifyVariables() error {
	seen := make(map[string]bool)
	defaults := 0
	enabled := 0

	for i, network := range cfg.Networks {
		if network.Disabled {
			continue
		}
		enabled++

		if network.Name == "" {
			return fmt.Errorf("missing network name for network[%d]", i)
		}
		name := strings.ToLower(network.Name)
		if seen[name] {
			return fmt.Errorf("duplicate network name %q", network.Name)
		}
		seen[name] = true

		if network.ChainID == 0 {
			return fmt.Errorf("missing chain id for network %q", network.Name)
		}
		if network.RPCURL == "" {
			return fmt.Errorf("missing rpc url for network %q", network.Name)
		}
		if network.Default {
			defaults++
		}
	}

	if enabled == 0 {
		return fmt.Errorf("no enabled networks configured")
	}
	if defaults != 1 {
		return fmt.Errorf("exactly one enabled network must be marked default, found %d", defaults)
	}
	return nil
}

// GetByName looks up an enabled network by its name, case-insensitively.
func (cfg NetworksConfig) GetByName(name string) (NetworkConfig, bool) {
	for _, network := range cfg.Networks {
		if network.Disabled {
			continue
		}
		if strings.EqualFold(network.Name, name) {
			return network, true
		}
	}
	return NetworkConfig{}, false
}

// DefaultName returns the name of the enabled network marked default.
func (cfg NetworksConfig) DefaultName() string {
	for _, network := range cfg.Networks {
		if !network.Disabled && network.Default {
			return network.Name
		}
	}
	return ""
}
