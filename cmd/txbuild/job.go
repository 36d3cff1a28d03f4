// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/keys"
	"github.com/ledgerforge/txbuilder/bitcoin/txbuilder"
)

// Job is the YAML description cmd/txbuild drives the library with:
// the inputs and outputs to add, and the keys to sign with, in order.
type Job struct {
	Version         int64        `yaml:"version"`
	LockTime        int64        `yaml:"lockTime"`
	AllowIncomplete bool         `yaml:"allowIncomplete"`
	Inputs          []JobInput   `yaml:"inputs"`
	Outputs         []JobOutput  `yaml:"outputs"`
	Signings        []JobSigning `yaml:"signings"`
}

// JobInput names one outpoint to spend.
type JobInput struct {
	TxID          string  `yaml:"txid"`
	Vout          uint32  `yaml:"vout"`
	Sequence      *uint32 `yaml:"sequence"`
	PrevOutScript string  `yaml:"prevOutScript"`
}

// JobOutput names one output to create, by address or raw script.
type JobOutput struct {
	Address string `yaml:"address"`
	Script  string `yaml:"script"`
	Value   int64  `yaml:"value"`
}

// JobSigning names one sign() call: which input, which key, and the
// optional signing-context hints.
type JobSigning struct {
	Vin          int    `yaml:"vin"`
	WIF          string `yaml:"wif"`
	HashType     string `yaml:"hashType"`
	RedeemScript string `yaml:"redeemScript"`
	WitnessValue *int64 `yaml:"witnessValue"`
}

// Run drives the builder end-to-end per the job description, returning
// the resulting transaction.
func Run(job *Job, network *chaincfg.Params) (*wire.MsgTx, error) {
	b := txbuilder.NewBuilder(network)

	if job.Version != 0 {
		if err := b.SetVersion(job.Version); err != nil {
			return nil, err
		}
	}

	for _, out := range job.Outputs {
		if err := addOutput(b, out); err != nil {
			return nil, err
		}
	}

	for _, in := range job.Inputs {
		if err := addInput(b, in); err != nil {
			return nil, err
		}
	}

	if job.LockTime != 0 {
		if err := b.SetLockTime(job.LockTime); err != nil {
			return nil, err
		}
	}

	for _, signing := range job.Signings {
		if err := sign(b, signing); err != nil {
			return nil, err
		}
	}

	if job.AllowIncomplete {
		return b.BuildIncomplete()
	}

	return b.Build()
}

func addOutput(b *txbuilder.Builder, out JobOutput) error {
	switch {
	case out.Address != "":
		_, err := b.AddOutputAddress(out.Address, out.Value)

		return err
	case out.Script != "":
		raw, err := hex.DecodeString(out.Script)
		if err != nil {
			return err
		}
		_, err = b.AddOutputScript(raw, out.Value)

		return err
	default:
		return fmt.Errorf("output needs an address or a script")
	}
}

func addInput(b *txbuilder.Builder, in JobInput) error {
	ref, err := txbuilder.TxRefFromHex(in.TxID)
	if err != nil {
		return err
	}

	var prevOutScript []byte
	if in.PrevOutScript != "" {
		prevOutScript, err = hex.DecodeString(in.PrevOutScript)
		if err != nil {
			return err
		}
	}

	_, err = b.AddInput(ref, in.Vout, in.Sequence, prevOutScript)

	return err
}

func sign(b *txbuilder.Builder, signing JobSigning) error {
	kp, err := keys.FromWIF(signing.WIF)
	if err != nil {
		return err
	}

	hashType, err := parseHashType(signing.HashType)
	if err != nil {
		return err
	}

	opts := txbuilder.SignOptions{
		Vin:          signing.Vin,
		KeyPair:      kp,
		HashType:     hashType,
		WitnessValue: signing.WitnessValue,
	}

	if signing.RedeemScript != "" {
		opts.RedeemScript, err = hex.DecodeString(signing.RedeemScript)
		if err != nil {
			return err
		}
	}

	return b.Sign(opts)
}

// parseHashType parses a name like "ALL", "NONE|ANYONECANPAY", or "" (SIGHASH_ALL).
func parseHashType(name string) (txscript.SigHashType, error) {
	if name == "" {
		return txscript.SigHashAll, nil
	}

	var hashType txscript.SigHashType
	for _, part := range strings.Split(name, "|") {
		switch strings.ToUpper(strings.TrimSpace(part)) {
		case "ALL":
			hashType |= txscript.SigHashAll
		case "NONE":
			hashType |= txscript.SigHashNone
		case "SINGLE":
			hashType |= txscript.SigHashSingle
		case "ANYONECANPAY":
			hashType |= txscript.SigHashAnyOneCanPay
		default:
			return 0, fmt.Errorf("unrecognized hashType component: %q", part)
		}
	}

	return hashType, nil
}
