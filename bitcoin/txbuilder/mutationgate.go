// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import "github.com/btcsuite/btcd/txscript"

// sigHashModeMask isolates the low 5 bits of a sighash byte, which
// select ALL/NONE/SINGLE independently of the ANYONECANPAY bit.
const sigHashModeMask = 0x1f

// canModifyInputs is true unless some existing signature lacks the
// ANYONECANPAY bit — that bit is the only way a signature commits to
// only its own input.
func (b *Builder) canModifyInputs() bool {
	for _, in := range b.inputs {
		for _, sig := range in.Signatures {
			if sig == nil {
				continue
			}

			hashType := sigHashTypeOf(sig)
			if hashType&txscript.SigHashAnyOneCanPay == 0 {
				return false
			}
		}
	}

	return true
}

// canModifyOutputs decides, per existing signature, whether adding an
// output would invalidate it: SIGHASH_NONE never cares, SIGHASH_SINGLE
// only tolerates it so long as inputs do not outnumber outputs, and
// SIGHASH_ALL (or anything else) forbids it outright.
func (b *Builder) canModifyOutputs() bool {
	nInputs := len(b.inputs)
	nOutputs := len(b.tx.TxOut)

	for _, in := range b.inputs {
		for _, sig := range in.Signatures {
			if sig == nil {
				continue
			}

			mode := sigHashTypeOf(sig) & sigHashModeMask
			switch mode {
			case txscript.SigHashNone:
				continue
			case txscript.SigHashSingle:
				if nInputs > nOutputs {
					return false
				}
			default:
				return false
			}
		}
	}

	return true
}

// needsOutputs mirrors the literal (and, per the builder's own design
// notes, slightly inverted) rule this was ported from: sign() refuses
// when hashType is SIGHASH_ALL and there are no outputs yet, or when
// there are no outputs yet and any already-committed signature is not
// SIGHASH_NONE.
func needsOutputs(hashType txscript.SigHashType, outputsEmpty bool, in *InputState) bool {
	if !outputsEmpty {
		return false
	}

	if hashType == txscript.SigHashAll {
		return true
	}

	for _, sig := range in.Signatures {
		if sig == nil {
			continue
		}

		mode := sigHashTypeOf(sig) & sigHashModeMask
		if mode != txscript.SigHashNone {
			return true
		}
	}

	return false
}

// sigHashTypeOf reads the trailing hashType byte off an
// already-encoded signature.
func sigHashTypeOf(sig []byte) txscript.SigHashType {
	return txscript.SigHashType(sig[len(sig)-1])
}
