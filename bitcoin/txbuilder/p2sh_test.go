// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/txbuilder/bitcoin/keys"
	"github.com/ledgerforge/txbuilder/bitcoin/script"
	"github.com/ledgerforge/txbuilder/bitcoin/txbuilder"
)

func nestedSegwitKeyPair(t *testing.T) *keys.KeyPair {
	t.Helper()

	var scalar [32]byte
	scalar[31] = 7
	priv, _ := btcec.PrivKeyFromBytes(scalar[:])

	return keys.New(priv)
}

// TestSignP2SHP2WPKH exercises the nested-segwit path end to end: the
// redeem script is a P2WPKH template, so the scriptSig carries only
// the redeem script push and the signature lands in the witness.
func TestSignP2SHP2WPKH(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	pubKeyHash := btcutil.Hash160(kp.PubKey())

	redeemScript, err := script.NewP2WPKH(pubKeyHash)
	require.NoError(t, err)

	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)

	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	value := int64(50000)
	err = b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
		WitnessValue: &value,
	})
	require.NoError(t, err)

	built, err := b.Build()
	require.NoError(t, err)

	sigScript := built.TxIn[0].SignatureScript
	pushes, err := txscript.PushedData(sigScript)
	require.NoError(t, err)
	require.Len(t, pushes, 1)
	require.Equal(t, redeemScript, pushes[0])

	require.Len(t, built.TxIn[0].Witness, 2)
	require.Equal(t, kp.PubKey(), built.TxIn[0].Witness[1])
}

// TestSignP2SHP2WPKHRoundTrip checks that a nested-segwit transaction
// survives fromTransaction/build unchanged.
func TestSignP2SHP2WPKHRoundTrip(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	pubKeyHash := btcutil.Hash160(kp.PubKey())

	redeemScript, err := script.NewP2WPKH(pubKeyHash)
	require.NoError(t, err)

	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)

	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	value := int64(50000)
	require.NoError(t, b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
		WitnessValue: &value,
	}))

	built, err := b.Build()
	require.NoError(t, err)

	reconstructed, err := txbuilder.FromTransaction(built, &chaincfg.MainNetParams)
	require.NoError(t, err)

	rebuilt, err := reconstructed.Build()
	require.NoError(t, err)

	require.Equal(t, built.TxIn[0].SignatureScript, rebuilt.TxIn[0].SignatureScript)
	require.Equal(t, built.TxIn[0].Witness, rebuilt.TxIn[0].Witness)
}

// TestSignP2SHP2WPKHAfterFromTransactionRejectsDuplicate checks the
// nested-segwit path's re-sign guard specifically, since resupplying
// witnessValue on the reconstructed input is what exposes it: without
// the idempotent-slot fix, re-deriving the redeemScript's signScript
// would run inferFromRedeemScript again and silently replace the
// signature expandInput had already recovered.
func TestSignP2SHP2WPKHAfterFromTransactionRejectsDuplicate(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	pubKeyHash := btcutil.Hash160(kp.PubKey())

	redeemScript, err := script.NewP2WPKH(pubKeyHash)
	require.NoError(t, err)

	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)
	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	value := int64(50000)
	require.NoError(t, b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
		WitnessValue: &value,
	}))

	built, err := b.Build()
	require.NoError(t, err)

	reconstructed, err := txbuilder.FromTransaction(built, &chaincfg.MainNetParams)
	require.NoError(t, err)

	err = reconstructed.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
		WitnessValue: &value,
	})
	require.ErrorIs(t, err, txbuilder.Duplicate)
}

// TestSignP2SHP2PKH exercises the non-segwit nested path: the redeem
// script is a P2PKH template, so both the signature and the pubkey
// ride in the scriptSig alongside the redeem script push, in
// <sig><pubkey><redeem> order, and no witness is produced.
func TestSignP2SHP2PKH(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	pubKeyHash := btcutil.Hash160(kp.PubKey())

	redeemScript, err := script.NewP2PKH(pubKeyHash)
	require.NoError(t, err)

	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)

	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	require.NoError(t, b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
	}))

	built, err := b.Build()
	require.NoError(t, err)

	require.Empty(t, built.TxIn[0].Witness)

	pushes, err := txscript.PushedData(built.TxIn[0].SignatureScript)
	require.NoError(t, err)
	require.Len(t, pushes, 3)
	require.Equal(t, kp.PubKey(), pushes[1])
	require.Equal(t, redeemScript, pushes[2])
}

// TestSignP2SHP2PKHRoundTrip checks that a non-segwit nested P2SH
// transaction survives FromTransaction/Build unchanged.
func TestSignP2SHP2PKHRoundTrip(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	pubKeyHash := btcutil.Hash160(kp.PubKey())

	redeemScript, err := script.NewP2PKH(pubKeyHash)
	require.NoError(t, err)

	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)

	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	require.NoError(t, b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
	}))

	built, err := b.Build()
	require.NoError(t, err)

	reconstructed, err := txbuilder.FromTransaction(built, &chaincfg.MainNetParams)
	require.NoError(t, err)

	rebuilt, err := reconstructed.Build()
	require.NoError(t, err)

	require.Equal(t, built.TxIn[0].SignatureScript, rebuilt.TxIn[0].SignatureScript)
	require.Empty(t, rebuilt.TxIn[0].Witness)
}

// TestInconsistentRedeemScriptRejected checks that signing the same
// input twice with two different redeem scripts is refused.
func TestInconsistentRedeemScriptRejected(t *testing.T) {
	kp := nestedSegwitKeyPair(t)
	redeemScript, err := script.NewP2WPKH(btcutil.Hash160(kp.PubKey()))
	require.NoError(t, err)
	wrapperScript, err := script.NewP2SH(btcutil.Hash160(redeemScript))
	require.NoError(t, err)

	priorTx := wire.NewMsgTx(2)
	priorTx.AddTxOut(wire.NewTxOut(50000, wrapperScript))

	b := txbuilder.NewBuilder(&chaincfg.MainNetParams)
	ref := txbuilder.TxRefFromTransaction(priorTx)
	_, err = b.AddInput(ref, 0, nil, nil)
	require.NoError(t, err)
	_, err = b.AddOutputScript(redeemScript, 40000)
	require.NoError(t, err)

	value := int64(50000)
	require.NoError(t, b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: redeemScript,
		WitnessValue: &value,
	}))

	otherRedeemScript, err := script.NewP2WPKH(make([]byte, 20))
	require.NoError(t, err)

	err = b.Sign(txbuilder.SignOptions{
		Vin:          0,
		KeyPair:      kp,
		RedeemScript: otherRedeemScript,
		WitnessValue: &value,
	})
	require.ErrorIs(t, err, txbuilder.InvalidArgument)
}
