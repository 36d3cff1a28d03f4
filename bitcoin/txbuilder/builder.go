// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/ledgerforge/txbuilder/bitcoin/address"
	"github.com/ledgerforge/txbuilder/bitcoin/script"
	"github.com/ledgerforge/txbuilder/internal/reverse"
)

// defaultMaximumFeeRate is the satoshis-per-virtual-byte ceiling
// consulted only by Build, never overridden implicitly.
const defaultMaximumFeeRate = 2500

// maxUint32 is the upper bound accepted by SetVersion and SetLockTime.
const maxUint32 = 1<<32 - 1

// Builder is a staged, safety-preserving Bitcoin transaction
// constructor: it accepts inputs and outputs incrementally, tracks
// partial signing state per input, and refuses any mutation that would
// silently invalidate an already-computed signature.
type Builder struct {
	network        *chaincfg.Params
	maximumFeeRate int64

	tx        *wire.MsgTx
	inputs    []*InputState
	prevTxSet map[string]bool
}

// NewBuilder returns an empty builder bound to network. The
// transaction starts at version 2 with locktime 0, per Bitcoin Core's
// own default.
func NewBuilder(network *chaincfg.Params) *Builder {
	return &Builder{
		network:        network,
		maximumFeeRate: defaultMaximumFeeRate,
		tx:             &wire.MsgTx{Version: 2},
		prevTxSet:      make(map[string]bool),
	}
}

// SetMaximumFeeRate overrides the default absurd-fee ceiling.
func (b *Builder) SetMaximumFeeRate(satoshisPerVByte int64) {
	b.maximumFeeRate = satoshisPerVByte
}

// InputCount reports how many inputs the builder currently holds.
func (b *Builder) InputCount() int {
	return len(b.inputs)
}

// TxRef names the previous transaction an input spends from: a raw
// hash, a display-order hex string, or a whole Transaction (the only
// case that can auto-populate prevOutScript and value).
type TxRef struct {
	hash *chainhash.Hash
	tx   *wire.MsgTx
}

// TxRefFromHash builds a TxRef from a 32-byte hash given in the
// display byte order conventionally used for txids (as copied from a
// block explorer), reversing it into the wire byte order chainhash
// stores internally.
func TxRefFromHash(displayOrderHash [32]byte) TxRef {
	wireOrder := reverse.Bytes(append([]byte(nil), displayOrderHash[:]...))

	var h chainhash.Hash
	copy(h[:], wireOrder)

	return TxRef{hash: &h}
}

// TxRefFromHex parses a 64-character display-order txid hex string.
func TxRefFromHex(hexTxID string) (TxRef, error) {
	h, err := chainhash.NewHashFromStr(hexTxID)
	if err != nil {
		return TxRef{}, newError(KindInvalidArgument, "unrecognized input reference")
	}

	return TxRef{hash: h}, nil
}

// TxRefFromTransaction builds a TxRef from a whole transaction, whose
// referenced output's script and value addInput harvests automatically.
func TxRefFromTransaction(tx *wire.MsgTx) TxRef {
	hash := tx.TxHash()

	return TxRef{hash: &hash, tx: tx}
}

// AddInput appends a new input spending ref:vout. sequence defaults to
// wire.MaxTxInSequenceNum when nil. prevOutScript is only consulted
// when ref does not already carry the previous output itself.
func (b *Builder) AddInput(ref TxRef, vout uint32, sequence *uint32, prevOutScript []byte) (int, error) {
	if !b.canModifyInputs() {
		return 0, newError(KindInvalidState, "No, this would invalidate signatures")
	}

	if ref.hash == nil {
		return 0, newError(KindInvalidArgument, "txRef must be a hash, hex string, or transaction")
	}

	if isCoinbaseHash(ref.hash) {
		return 0, newError(KindInvalidArgument, "Cannot spend the coinbase output directly")
	}

	key := outpointKey(ref.hash, vout)
	if b.prevTxSet[key] {
		return 0, newErrorf(KindDuplicate, "Duplicate TxOut: %s:%d", ref.hash.String(), vout)
	}

	seq := uint32(wire.MaxTxInSequenceNum)
	if sequence != nil {
		seq = *sequence
	}

	state := &InputState{Sequence: seq}

	switch {
	case ref.tx != nil:
		if int(vout) >= len(ref.tx.TxOut) {
			return 0, newErrorf(KindInvalidArgument, "No output at index: %d", vout)
		}

		out := ref.tx.TxOut[vout]
		value := out.Value
		state.PrevOutScript = out.PkScript
		state.Value = &value
		state.PrevOutType = script.Classify(out.PkScript)

	case len(prevOutScript) > 0:
		state.PrevOutScript = prevOutScript
		state.PrevOutType = script.Classify(prevOutScript)
	}

	outPoint := wire.NewOutPoint(ref.hash, vout)
	txIn := wire.NewTxIn(outPoint, nil, nil)
	txIn.Sequence = seq

	b.tx.TxIn = append(b.tx.TxIn, txIn)
	b.inputs = append(b.inputs, state)
	b.prevTxSet[key] = true

	return len(b.inputs) - 1, nil
}

// AddOutputAddress resolves addr against the builder's network and
// appends an output paying value to it.
func (b *Builder) AddOutputAddress(addr string, value int64) (int, error) {
	pkScript, err := address.ToOutputScript(addr, b.network)
	if err != nil {
		return 0, newError(KindInvalidArgument, err.Error())
	}

	return b.addOutput(pkScript, value)
}

// AddOutputScript appends an output with a caller-supplied raw output
// script.
func (b *Builder) AddOutputScript(pkScript []byte, value int64) (int, error) {
	return b.addOutput(pkScript, value)
}

func (b *Builder) addOutput(pkScript []byte, value int64) (int, error) {
	if !b.canModifyOutputs() {
		return 0, newError(KindInvalidState, "No, this would invalidate signatures")
	}

	b.tx.TxOut = append(b.tx.TxOut, wire.NewTxOut(value, pkScript))

	return len(b.tx.TxOut) - 1, nil
}

// SetVersion sets the transaction version, range-checked against the
// uint32 domain a dynamically-typed caller (e.g. a YAML job file)
// might otherwise violate.
func (b *Builder) SetVersion(v int64) error {
	if v < 0 || v > maxUint32 {
		return newError(KindInvalidArgument, "Expected Uint32")
	}

	b.tx.Version = int32(uint32(v))

	return nil
}

// SetLockTime sets the transaction locktime. Refused once any input
// carries a signature, since locktime participates in every sighash
// pre-image regardless of SIGHASH flags.
func (b *Builder) SetLockTime(v int64) error {
	if v < 0 || v > maxUint32 {
		return newError(KindInvalidArgument, "Expected Uint32")
	}

	for _, in := range b.inputs {
		if in.hasSignature() {
			return newError(KindInvalidState, "No, this would invalidate signatures")
		}
	}

	b.tx.LockTime = uint32(v)

	return nil
}

// Dump renders the builder's transaction and per-input signing state
// for debugging; never consulted by production code paths.
func (b *Builder) Dump() string {
	return spew.Sdump(b.tx, b.inputs)
}

// isCoinbaseHash reports whether hash is the all-zero coinbase
// placeholder.
func isCoinbaseHash(hash *chainhash.Hash) bool {
	var zero chainhash.Hash

	return *hash == zero
}

// outpointKey renders an outpoint the same way the builder's
// duplicate-outpoint error message does: display-order txid, colon,
// vout.
func outpointKey(hash *chainhash.Hash, vout uint32) string {
	return fmt.Sprintf("%s:%d", hash.String(), vout)
}
