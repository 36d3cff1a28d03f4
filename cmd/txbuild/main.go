// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Command txbuild drives bitcoin/txbuilder end-to-end from a YAML job
// file: it builds a transaction, signs it with one or more WIF keys
// in sequence, and prints the resulting hex.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"gopkg.in/yaml.v3"

	"github.com/ledgerforge/txbuilder/bitcoin/txbuilder"
	"github.com/ledgerforge/txbuilder/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "txbuild:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(defaultConfigPath(), os.Args[1:])
	if err != nil {
		return err
	}

	logger, closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer()
	txbuilder.UseLogger(logger)

	if cfg.JobFile == "" {
		return fmt.Errorf("a --job file is required")
	}

	raw, err := os.ReadFile(cfg.JobFile)
	if err != nil {
		return err
	}

	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return err
	}

	network, err := cfg.ChainParams()
	if err != nil {
		return err
	}

	tx, err := Run(&job, network)
	if err != nil {
		return err
	}

	raw, err = serializeTx(tx)
	if err != nil {
		return err
	}

	fmt.Println(hexEncode(raw))

	return nil
}

// defaultConfigPath returns the conventional location for txbuild's
// own YAML config, consulted before flags are parsed.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".txbuild", "txbuild.yaml")
}

// setupLogging wires a rotating log file the same way
// build.NewRotatingLogWriter does for lnd: a single rotator.Rotator
// backing a btclog.Backend.
func setupLogging(cfg *config.Config) (btclog.Logger, func(), error) {
	logPath := filepath.Join(cfg.LogDir, "txbuild.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return nil, nil, err
	}

	r, err := rotator.New(logPath, 10*1024, false, 3)
	if err != nil {
		return nil, nil, err
	}

	backend := btclog.NewBackend(r)
	logger := backend.Logger("TXBD")
	logger.SetLevel(parseLevel(cfg.LogLevel))

	return logger, func() { r.Close() }, nil
}

func parseLevel(name string) btclog.Level {
	level, ok := btclog.LevelFromString(name)
	if !ok {
		return btclog.LevelInfo
	}

	return level
}
