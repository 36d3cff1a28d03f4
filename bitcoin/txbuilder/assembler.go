// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ledgerforge/txbuilder/bitcoin/script"
)

// assembled is a rendered scriptSig/witness pair for one input.
type assembled struct {
	SigScript []byte
	Witness   wire.TxWitness
}

// buildByType renders an input's signing state into its final
// scriptSig/witness, recursing once for P2SH wrappers.
func buildByType(typ script.Type, in *InputState, allowIncomplete bool) (assembled, error) {
	switch typ {
	case script.P2PKH:
		if !hasSlotZero(in) {
			if allowIncomplete {
				return assembled{}, nil
			}

			return assembled{}, newError(KindIncomplete, "Not enough information")
		}

		sigScript, err := txscript.NewScriptBuilder().
			AddData(in.Signatures[0]).
			AddData(in.PubKeys[0]).
			Script()
		if err != nil {
			return assembled{}, err
		}

		return assembled{SigScript: sigScript}, nil

	case script.P2WPKH:
		if !hasSlotZero(in) {
			if allowIncomplete {
				return assembled{}, nil
			}

			return assembled{}, newError(KindIncomplete, "Not enough information")
		}

		return assembled{Witness: wire.TxWitness{in.Signatures[0], in.PubKeys[0]}}, nil

	case script.P2SH:
		if len(in.RedeemScript) == 0 {
			if allowIncomplete {
				return assembled{}, nil
			}

			return assembled{}, newError(KindIncomplete, "Not enough information")
		}

		inner, err := buildByType(in.RedeemScriptType, in, allowIncomplete)
		if err != nil {
			return assembled{}, err
		}
		if len(inner.SigScript) == 0 && len(inner.Witness) == 0 {
			return assembled{}, nil
		}

		return wrapP2SH(inner, in.RedeemScript)

	default:
		if allowIncomplete {
			return assembled{}, nil
		}

		return assembled{}, newError(KindIncomplete, "Unknown input type")
	}
}

// hasSlotZero reports whether slot 0 of both parallel arrays is
// populated, the readiness condition for every single-key type this
// builder supports.
func hasSlotZero(in *InputState) bool {
	return len(in.PubKeys) > 0 && len(in.Signatures) > 0 && in.PubKeys[0] != nil && in.Signatures[0] != nil
}

// wrapP2SH appends redeemScript as the final scriptSig push. If the
// inner assembly produced a witness, the witness stack transfers
// unchanged to the outer input and the scriptSig carries only the
// redeem script push (P2SH-P2WPKH); otherwise the inner scriptSig's
// own pushes are preserved ahead of the redeem script push
// (P2SH-P2PKH).
func wrapP2SH(inner assembled, redeemScript []byte) (assembled, error) {
	if len(inner.Witness) > 0 {
		sigScript, err := txscript.NewScriptBuilder().AddData(redeemScript).Script()
		if err != nil {
			return assembled{}, err
		}

		return assembled{SigScript: sigScript, Witness: inner.Witness}, nil
	}

	pushes, err := txscript.PushedData(inner.SigScript)
	if err != nil {
		return assembled{}, err
	}

	builder := txscript.NewScriptBuilder()
	for _, push := range pushes {
		builder.AddData(push)
	}
	builder.AddData(redeemScript)

	sigScript, err := builder.Script()
	if err != nil {
		return assembled{}, err
	}

	return assembled{SigScript: sigScript}, nil
}

// build is the shared implementation behind Build and BuildIncomplete:
// a pure projection that clones tx before stamping in assembled
// scripts, so the builder's own state is never mutated by building.
func (b *Builder) build(allowIncomplete bool) (*wire.MsgTx, error) {
	if !allowIncomplete && (len(b.tx.TxIn) == 0 || len(b.tx.TxOut) == 0) {
		return nil, newError(KindInvalidState, "Transaction is not complete")
	}

	clone := b.tx.Copy()

	for i, in := range b.inputs {
		result, err := buildByType(in.PrevOutType, in, allowIncomplete)
		if err != nil {
			return nil, err
		}

		clone.TxIn[i].SignatureScript = result.SigScript
		clone.TxIn[i].Witness = result.Witness
	}

	if allowIncomplete {
		return clone, nil
	}

	for _, in := range b.inputs {
		if !in.hasSignature() {
			return nil, newError(KindIncomplete, "Transaction is not complete")
		}
	}

	if vsize := virtualSize(clone); vsize > 0 {
		fee := b.totalInputValue() - b.totalOutputValue()
		feeRate := fee / vsize
		if feeRate > b.maximumFeeRate {
			return nil, newError(KindAbsurdFee, "Transaction has absurd fees")
		}
	}

	return clone, nil
}

// Build assembles a fully-signed transaction, failing if any input is
// unsigned or the fee rate looks absurd.
func (b *Builder) Build() (*wire.MsgTx, error) {
	return b.build(false)
}

// BuildIncomplete assembles a partial transaction, leaving scriptSig
// and witness blank on any input that is not yet ready, for
// multi-party workflows that hand the result to another signer.
func (b *Builder) BuildIncomplete() (*wire.MsgTx, error) {
	return b.build(true)
}

// totalInputValue sums known input values, counting unknown ones as
// zero — the fee guard this feeds is best-effort by design.
func (b *Builder) totalInputValue() int64 {
	var total int64
	for _, in := range b.inputs {
		if in.Value != nil {
			total += *in.Value
		}
	}

	return total
}

// totalOutputValue sums every output value.
func (b *Builder) totalOutputValue() int64 {
	var total int64
	for _, out := range b.tx.TxOut {
		total += out.Value
	}

	return total
}

// virtualSize derives segwit-weighted virtual size from transaction
// weight, rounding up as the protocol specifies.
func virtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))

	return (weight + 3) / 4
}
