// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package config loads the settings cmd/txbuild runs with: network
// selection and log level, with the same
// flags-override-file-override-default precedence lnd's own config
// loader uses. It also loads an absurd-fee ceiling, which cmd/txbuild
// does not pass to the builder.
package config

import (
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Config is the CLI's settings, loadable from a YAML file and
// overridable by command-line flags.
type Config struct {
	Network        string `yaml:"network" long:"network" description:"one of mainnet, testnet3, regtest, simnet"`
	MaximumFeeRate int64  `yaml:"maximumFeeRate" long:"maxfeerate" description:"satoshis-per-vbyte ceiling; loaded but not applied by txbuild, which always builds with the builder default"`
	LogLevel       string `yaml:"logLevel" long:"loglevel" description:"trace, debug, info, warn, error, critical, off"`
	JobFile        string `long:"job" description:"path to the YAML job file describing inputs, outputs, and keys"`
	LogDir         string `yaml:"logDir" long:"logdir" description:"directory log files are rotated into"`
}

// Default returns the configuration used when neither a config file
// nor flags override a field.
func Default() *Config {
	return &Config{
		Network:        "mainnet",
		MaximumFeeRate: 0,
		LogLevel:       "info",
		LogDir:         ".",
	}
}

// Load applies, in increasing precedence, the built-in default, the
// YAML file at path (if it exists), then argv flags.
func Load(path string, argv []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(argv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML decodes a YAML file over the defaults already set on cfg,
// leaving fields the file omits untouched. A missing file is not an
// error — it just means the caller relies on defaults and flags.
func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(raw, cfg)
}

// ChainParams resolves the configured network name to its
// chaincfg.Params.
func (c *Config) ChainParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, &UnknownNetworkError{Network: c.Network}
	}
}

// UnknownNetworkError reports a network name ChainParams does not
// recognize.
type UnknownNetworkError struct {
	Network string
}

// Error implements the error interface.
func (e *UnknownNetworkError) Error() string {
	return "unknown network: " + e.Network
}
