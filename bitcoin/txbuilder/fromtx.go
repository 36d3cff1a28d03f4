// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/script"
)

// FromTransaction reconstructs a builder from an already-assembled
// transaction: outputs are replayed first so the mutation gate never
// has a chance to reject them, then each input is appended carrying
// its observed scriptSig/witness so the expanders can recover enough
// signing context for build to reproduce it byte-for-byte.
func FromTransaction(tx *wire.MsgTx, network *chaincfg.Params) (*Builder, error) {
	b := NewBuilder(network)
	b.tx.Version = tx.Version
	b.tx.LockTime = tx.LockTime

	for _, out := range tx.TxOut {
		if _, err := b.AddOutputScript(out.PkScript, out.Value); err != nil {
			return nil, err
		}
	}

	for _, in := range tx.TxIn {
		if err := b.addInputUnsafe(in); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// addInputUnsafe appends an input exactly as observed, bypassing the
// mutation gate (reconstruction never invalidates a signature that
// does not exist yet) but still enforcing outpoint uniqueness.
func (b *Builder) addInputUnsafe(in *wire.TxIn) error {
	hash := in.PreviousOutPoint.Hash
	vout := in.PreviousOutPoint.Index

	key := outpointKey(&hash, vout)
	if b.prevTxSet[key] {
		return newErrorf(KindDuplicate, "Duplicate TxOut: %s:%d", hash.String(), vout)
	}

	expanded, err := expandInput(in.SignatureScript, in.Witness)
	if err != nil {
		return err
	}

	signType := expanded.PrevOutType
	if expanded.PrevOutType == script.P2SH {
		signType = expanded.RedeemScriptType
	}

	state := &InputState{
		Sequence:         in.Sequence,
		Script:           in.SignatureScript,
		Witness:          in.Witness,
		PubKeys:          expanded.PubKeys,
		Signatures:       expanded.Signatures,
		PrevOutType:      expanded.PrevOutType,
		PrevOutScript:    expanded.PrevOutScript,
		SignScript:       expanded.SignScript,
		SignType:         signType,
		RedeemScript:     expanded.RedeemScript,
		RedeemScriptType: expanded.RedeemScriptType,
		MaxSignatures:    len(expanded.PubKeys),
	}

	if expanded.PrevOutType == script.P2WPKH || expanded.RedeemScriptType == script.P2WPKH {
		state.HasWitness = true
	}

	newTxIn := wire.NewTxIn(&in.PreviousOutPoint, nil, nil)
	newTxIn.Sequence = in.Sequence

	b.tx.TxIn = append(b.tx.TxIn, newTxIn)
	b.inputs = append(b.inputs, state)
	b.prevTxSet[key] = true

	return nil
}
