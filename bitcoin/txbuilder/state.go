// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/script"
)

// InputState is everything the builder knows about one transaction
// input: its prior output, the script that will be fed into the
// signature hash, and the parallel pubkey/signature slots the signer
// and assembler read and write together.
type InputState struct {
	Sequence uint32
	Script   []byte
	Witness  wire.TxWitness

	PrevOutScript []byte
	PrevOutType   script.Type

	RedeemScript     []byte
	RedeemScriptType script.Type

	SignScript []byte
	SignType   script.Type

	HasWitness bool
	Value      *int64

	PubKeys       [][]byte
	Signatures    [][]byte
	MaxSignatures int
}

// canSign reports whether enough signing context has already been
// established that sign() does not need to re-infer it: the
// sign-script and pubkey/signature slots are populated in matching
// lengths, and value is known whenever the input is witness-bearing.
func (in *InputState) canSign() bool {
	if len(in.SignScript) == 0 {
		return false
	}
	if len(in.PubKeys) == 0 || len(in.PubKeys) != len(in.Signatures) {
		return false
	}
	if in.HasWitness && in.Value == nil {
		return false
	}

	return true
}

// hasSignature reports whether any signature slot is filled.
func (in *InputState) hasSignature() bool {
	for _, sig := range in.Signatures {
		if sig != nil {
			return true
		}
	}

	return false
}
