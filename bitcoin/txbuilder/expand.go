// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/script"
	"github.com/ledgerforge/txbuilder/internal/sequencereader"
)

// expandedOutput is the signing-context shape recovered from a single
// output script.
type expandedOutput struct {
	Type          script.Type
	SignScript    []byte
	PubKeys       [][]byte
	Signatures    [][]byte
	MaxSignatures int
}

// expandOutput classifies pkScript and, for the two single-key types
// this builder supports, populates the pubkey/signature slot when
// ourPubKey is supplied and hashes to the script's embedded pubkey
// hash.
func expandOutput(pkScript []byte, ourPubKey []byte) expandedOutput {
	typ := script.Classify(pkScript)

	switch typ {
	case script.P2PKH:
		result := expandedOutput{Type: typ, SignScript: pkScript, MaxSignatures: 1}
		if hash, ok := script.PubKeyHash(pkScript); ok && matchesHash(ourPubKey, hash) {
			result.PubKeys = [][]byte{ourPubKey}
			result.Signatures = [][]byte{nil}
		}

		return result

	case script.P2WPKH:
		hash, _ := script.PubKeyHash(pkScript)
		signScript, err := script.NewP2PKH(hash)
		if err != nil {
			return expandedOutput{Type: typ}
		}

		result := expandedOutput{Type: typ, SignScript: signScript, MaxSignatures: 1}
		if matchesHash(ourPubKey, hash) {
			result.PubKeys = [][]byte{ourPubKey}
			result.Signatures = [][]byte{nil}
		}

		return result

	default:
		return expandedOutput{Type: typ}
	}
}

// matchesHash reports whether ourPubKey hashes to hash.
func matchesHash(ourPubKey, hash []byte) bool {
	if ourPubKey == nil || hash == nil {
		return false
	}

	return bytes.Equal(script.Hash160(ourPubKey), hash)
}

// expandedInput is the signing-context shape recovered from an
// already-built input's scriptSig and witness. PrevOutScript and
// SignScript are derived from the recovered pubkey/redeemScript, not
// observed directly (the builder never sees the real previous output
// when reconstructing from a bare transaction) — they let canSign
// report true right away, so a later Sign() call on the same key
// lands on the "Signature already exists" check instead of re-running
// inference and silently overwriting what was recovered.
type expandedInput struct {
	PubKeys          [][]byte
	Signatures       [][]byte
	PrevOutType      script.Type
	PrevOutScript    []byte
	SignScript       []byte
	RedeemScript     []byte
	RedeemScriptType script.Type
}

// expandInput recovers pubkey/signature slots from a spent input.
// P2PKH carries `<sig> <pubkey>` in the scriptSig; native P2WPKH
// carries `[sig, pubkey]` in the witness; P2SH carries the redeem
// script as the final scriptSig push, wrapping either shape.
func expandInput(scriptSig []byte, witness wire.TxWitness) (expandedInput, error) {
	witnessItems := sequencereader.New([][]byte(witness))

	if len(scriptSig) == 0 {
		if witnessItems.Len() >= 2 {
			sig, pubkey := mustTwo(witnessItems)
			prevOutScript, signScript, err := p2wpkhScripts(pubkey)
			if err != nil {
				return expandedInput{}, err
			}

			return expandedInput{
				PubKeys:       [][]byte{pubkey},
				Signatures:    [][]byte{sig},
				PrevOutType:   script.P2WPKH,
				PrevOutScript: prevOutScript,
				SignScript:    signScript,
			}, nil
		}

		return expandedInput{}, nil
	}

	rawPushes, err := txscript.PushedData(scriptSig)
	if err != nil {
		return expandedInput{}, err
	}
	pushes := sequencereader.New(rawPushes)

	switch pushes.Len() {
	case 2:
		sig, pubkey := mustTwo(pushes)
		pkScript, err := script.NewP2PKH(script.Hash160(pubkey))
		if err != nil {
			return expandedInput{}, err
		}

		return expandedInput{
			PubKeys:       [][]byte{pubkey},
			Signatures:    [][]byte{sig},
			PrevOutType:   script.P2PKH,
			PrevOutScript: pkScript,
			SignScript:    pkScript,
		}, nil

	case 1:
		// P2SH-P2WPKH: the scriptSig carries only the redeem script
		// push, the witness carries [sig, pubkey].
		redeem, _ := pushes.Next()
		wrapperScript, err := script.NewP2SH(script.Hash160(redeem))
		if err != nil {
			return expandedInput{}, err
		}

		result := expandedInput{
			PrevOutType:      script.P2SH,
			PrevOutScript:    wrapperScript,
			RedeemScript:     redeem,
			RedeemScriptType: script.Classify(redeem),
		}
		if witnessItems.Len() >= 2 {
			sig, pubkey := mustTwo(witnessItems)
			_, signScript, err := p2wpkhScripts(pubkey)
			if err != nil {
				return expandedInput{}, err
			}

			result.PubKeys = [][]byte{pubkey}
			result.Signatures = [][]byte{sig}
			result.SignScript = signScript
		}

		return result, nil

	case 3:
		// P2SH-P2PKH: <sig> <pubkey> <redeemScript>.
		sig, pubkey := mustTwo(pushes)
		redeem, _ := pushes.Next()
		wrapperScript, err := script.NewP2SH(script.Hash160(redeem))
		if err != nil {
			return expandedInput{}, err
		}

		return expandedInput{
			PubKeys:          [][]byte{pubkey},
			Signatures:       [][]byte{sig},
			PrevOutType:      script.P2SH,
			PrevOutScript:    wrapperScript,
			SignScript:       redeem,
			RedeemScript:     redeem,
			RedeemScriptType: script.Classify(redeem),
		}, nil

	default:
		return expandedInput{}, nil
	}
}

// p2wpkhScripts returns the P2WPKH prevOutScript and the P2PKH-shaped
// signScript BIP-143 computes the witness sighash over, both keyed on
// the same pubkey hash.
func p2wpkhScripts(pubkey []byte) (prevOutScript, signScript []byte, err error) {
	hash := script.Hash160(pubkey)

	prevOutScript, err = script.NewP2WPKH(hash)
	if err != nil {
		return nil, nil, err
	}

	signScript, err = script.NewP2PKH(hash)
	if err != nil {
		return nil, nil, err
	}

	return prevOutScript, signScript, nil
}

// mustTwo reads the next two items off seq in order. Callers only
// invoke it once seq.Len() has already been checked to be at least 2,
// so the errors SequenceReader.Next can return never occur here.
func mustTwo(seq *sequencereader.SequenceReader[[]byte]) ([]byte, []byte) {
	first, _ := seq.Next()
	second, _ := seq.Next()

	return first, second
}
