// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/keys"
	"github.com/ledgerforge/txbuilder/bitcoin/script"
)

// SignOptions carries sign()'s optional signing-context hints. Only
// KeyPair and Vin are required. HashType (default SIGHASH_ALL) applies
// to every call, and RedeemScript is checked on every call against one
// already stored; otherwise RedeemScript, WitnessValue and
// WitnessScript are only consulted while the input's signing context
// is still being inferred.
type SignOptions struct {
	Vin           int
	KeyPair       *keys.KeyPair
	RedeemScript  []byte
	WitnessValue  *int64
	WitnessScript []byte
	HashType      txscript.SigHashType
}

// Sign infers (on first call) or reuses an input's signing context,
// computes the correct sighash pre-image, and places the resulting
// signature in the slot matching the key pair's public key.
func (b *Builder) Sign(opts SignOptions) error {
	hashType := opts.HashType
	if hashType == 0 {
		hashType = txscript.SigHashAll
	}

	if opts.KeyPair == nil {
		return newError(KindInvalidArgument, "keyPair is required")
	}
	if !opts.KeyPair.ConsistentWithNetwork(b.network) {
		return newError(KindInvalidArgument, "Inconsistent network")
	}
	if opts.Vin < 0 || opts.Vin >= len(b.inputs) {
		return newErrorf(KindInvalidArgument, "No input at index: %d", opts.Vin)
	}

	in := b.inputs[opts.Vin]
	outputsEmpty := len(b.tx.TxOut) == 0
	if needsOutputs(hashType, outputsEmpty, in) {
		return newError(KindInvalidState, "Transaction needs outputs")
	}

	if len(opts.RedeemScript) > 0 && len(in.RedeemScript) > 0 && !bytes.Equal(opts.RedeemScript, in.RedeemScript) {
		return newError(KindInvalidArgument, "Inconsistent redeemScript")
	}

	if !in.canSign() {
		if err := b.inferSigningContext(in, opts); err != nil {
			return err
		}
	}

	digest, err := b.hashForInput(opts.Vin, in, hashType)
	if err != nil {
		return err
	}

	sigWithHashType := script.EncodeSignature(opts.KeyPair.Sign(digest), hashType)
	ourPubKey := opts.KeyPair.PubKey()

	for i, pk := range in.PubKeys {
		if !bytes.Equal(pk, ourPubKey) {
			continue
		}
		if in.Signatures[i] != nil {
			return newError(KindDuplicate, "Signature already exists")
		}

		in.Signatures[i] = sigWithHashType
		log.Debugf("txbuilder: placed signature for input %d in slot %d", opts.Vin, i)

		return nil
	}

	return newError(KindInvalidArgument, "Key pair cannot sign for this input")
}

// inferSigningContext runs the five-step signing-context inference:
// witness value, then redeemScript, then witnessScript, then
// prevOutScript classification, finally a naked-P2PKH assumption.
func (b *Builder) inferSigningContext(in *InputState, opts SignOptions) error {
	ourPubKey := opts.KeyPair.PubKey()

	if opts.WitnessValue != nil {
		if in.Value != nil && *in.Value != *opts.WitnessValue {
			return newError(KindInvalidArgument, "witnessValue inconsistent with known input value")
		}
		in.Value = opts.WitnessValue
	}

	// Everything but the value was already known (typically an input
	// recovered by FromTransaction) — nothing left to infer.
	if in.canSign() {
		return nil
	}

	switch {
	case len(opts.RedeemScript) > 0:
		return b.inferFromRedeemScript(in, opts.RedeemScript, ourPubKey)

	case len(opts.WitnessScript) > 0:
		return newError(KindUnimplemented, "witnessScript signing is not implemented")

	case len(in.PrevOutScript) > 0:
		return inferFromPrevOutScript(in, ourPubKey)

	default:
		signScript, err := script.NewP2PKH(script.Hash160(ourPubKey))
		if err != nil {
			return err
		}

		in.SignScript = signScript
		in.SignType = script.P2PKH
		in.MaxSignatures = 1

		if len(in.PubKeys) == 0 {
			in.PubKeys = [][]byte{ourPubKey}
			in.Signatures = [][]byte{nil}
		}

		return nil
	}
}

// inferFromRedeemScript constructs the P2SH wrapper for redeemScript,
// checking it against any already-known prevOutScript, then expands
// the redeem script itself to populate the pubkey/signature slots —
// unless a slot-holding input (e.g. one recovered by FromTransaction)
// already has them, in which case the existing slots are kept so a
// repeat sign() lands on the duplicate-signature check instead of
// silently discarding what was already recovered.
func (b *Builder) inferFromRedeemScript(in *InputState, redeemScript []byte, ourPubKey []byte) error {
	wrapperHash := script.Hash160(redeemScript)

	if len(in.PrevOutScript) > 0 {
		if script.Classify(in.PrevOutScript) != script.P2SH {
			return newError(KindInvariant, "PrevOutScript must be P2SH")
		}

		existingHash, _ := script.ScriptHash(in.PrevOutScript)
		if !bytes.Equal(existingHash, wrapperHash) {
			return newError(KindInvariant, "Redeem script inconsistent with prevOutScript")
		}
	} else {
		wrapperScript, err := script.NewP2SH(wrapperHash)
		if err != nil {
			return err
		}
		in.PrevOutScript = wrapperScript
	}

	redeemType := script.Classify(redeemScript)
	expanded := expandOutput(redeemScript, ourPubKey)
	if len(expanded.PubKeys) == 0 {
		asm, _ := script.ToASM(redeemScript)

		return newErrorf(KindUnsupported, "%s not supported as redeemScript (%s)", redeemType, asm)
	}

	in.RedeemScript = redeemScript
	in.RedeemScriptType = redeemType
	in.PrevOutType = script.P2SH
	in.SignScript = expanded.SignScript
	in.SignType = redeemType
	in.MaxSignatures = expanded.MaxSignatures

	if len(in.PubKeys) == 0 {
		in.PubKeys = expanded.PubKeys
		in.Signatures = expanded.Signatures
	}

	if redeemType == script.P2WPKH {
		in.HasWitness = true
	}

	return nil
}

// inferFromPrevOutScript classifies the already-known prevOutScript
// and expands it directly, with no P2SH wrapper involved. As with
// inferFromRedeemScript, an input that already carries pubkey/
// signature slots keeps them rather than having them replaced.
func inferFromPrevOutScript(in *InputState, ourPubKey []byte) error {
	expanded := expandOutput(in.PrevOutScript, ourPubKey)

	switch expanded.Type {
	case script.P2WPKH:
		in.HasWitness = true
	case script.P2PKH:
	default:
		return newErrorf(KindUnimplemented, "%s prevOutScript signing is not implemented", expanded.Type)
	}

	in.PrevOutType = expanded.Type
	in.SignScript = expanded.SignScript
	in.SignType = expanded.Type
	in.MaxSignatures = expanded.MaxSignatures

	if len(in.PubKeys) == 0 {
		in.PubKeys = expanded.PubKeys
		in.Signatures = expanded.Signatures
	}

	return nil
}

// hashForInput computes the correct sighash pre-image for vin: the
// BIP-143 segwit-v0 pre-image when the input carries a witness, the
// legacy pre-image otherwise.
func (b *Builder) hashForInput(vin int, in *InputState, hashType txscript.SigHashType) ([32]byte, error) {
	var out [32]byte

	if in.HasWitness {
		if in.Value == nil {
			return out, newError(KindInvalidState, "witness input value is unknown")
		}

		sigHashes := txscript.NewTxSigHashes(b.tx, b.prevOutputFetcher())
		hash, err := txscript.CalcWitnessSigHash(in.SignScript, sigHashes, hashType, b.tx, vin, *in.Value)
		if err != nil {
			return out, err
		}
		copy(out[:], hash)

		return out, nil
	}

	hash, err := txscript.CalcSignatureHash(in.SignScript, hashType, b.tx, vin)
	if err != nil {
		return out, err
	}
	copy(out[:], hash)

	return out, nil
}

// prevOutputFetcher builds a fetcher over every previously-known
// output, used to construct TxSigHashes. Inputs with an unknown value
// or script are reported as a zero-value output, matching the
// fee guard's "unknown input values count as zero" convention.
func (b *Builder) prevOutputFetcher() txscript.PrevOutputFetcher {
	outs := make(map[wire.OutPoint]*wire.TxOut, len(b.inputs))
	for i, in := range b.inputs {
		var value int64
		if in.Value != nil {
			value = *in.Value
		}

		outs[b.tx.TxIn[i].PreviousOutPoint] = &wire.TxOut{Value: value, PkScript: in.PrevOutScript}
	}

	return txscript.NewMultiPrevOutFetcher(outs)
}
