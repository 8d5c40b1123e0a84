package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// RunConfig drives the tosd command line: which network to validate against,
// where the snapshot comes from and where results go.
type RunConfig struct {
	NetworkName  string `toml:"NetworkName"`
	ChainID      uint8  `toml:"ChainID"`
	SnapshotFile string `toml:"SnapshotFile"`
	BlocksFile   string `toml:"BlocksFile"`
	DataDir      string `toml:"DataDir"`
	OutputFile   string `toml:"OutputFile"`
}

// LoadRunConfig loads the TOML run configuration from path. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	cfg := &RunConfig{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %q", path, undecoded[0].String())
	}

	if cfg.SnapshotFile == "" {
		return nil, fmt.Errorf("config file %s missing SnapshotFile", path)
	}
	return cfg, nil
}

// Params resolves the parameter set named by the config. NetworkName wins
// over the numeric ChainID when both are set.
func (c *RunConfig) Params() (*Params, error) {
	switch c.NetworkName {
	case "mainnet":
		return MainnetParams(), nil
	case "testnet":
		return TestnetParams(), nil
	case "stagenet":
		return StagenetParams(), nil
	case "devnet":
		return DevnetParams(), nil
	case "":
		return ParamsForChain(c.ChainID), nil
	default:
		return nil, fmt.Errorf("unknown network %q", c.NetworkName)
	}
}
