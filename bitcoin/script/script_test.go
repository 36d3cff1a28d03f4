// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package script_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/ledgerforge/txbuilder/bitcoin/script"
)

func TestClassify(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i + 1)
	}

	p2pkh, err := script.NewP2PKH(hash)
	require.NoError(t, err)
	require.Equal(t, script.P2PKH, script.Classify(p2pkh))

	p2wpkh, err := script.NewP2WPKH(hash)
	require.NoError(t, err)
	require.Equal(t, script.P2WPKH, script.Classify(p2wpkh))

	p2sh, err := script.NewP2SH(hash)
	require.NoError(t, err)
	require.Equal(t, script.P2SH, script.Classify(p2sh))

	require.Equal(t, script.NonStandard, script.Classify([]byte{txscript.OP_RETURN}))
	require.Equal(t, script.NonStandard, script.Classify(nil))
}

func TestPubKeyHashRoundTrip(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}

	p2pkh, err := script.NewP2PKH(hash)
	require.NoError(t, err)

	extracted, ok := script.PubKeyHash(p2pkh)
	require.True(t, ok)
	require.Equal(t, hash, extracted)

	p2wpkh, err := script.NewP2WPKH(hash)
	require.NoError(t, err)

	extracted, ok = script.PubKeyHash(p2wpkh)
	require.True(t, ok)
	require.Equal(t, hash, extracted)

	_, ok = script.PubKeyHash([]byte{txscript.OP_RETURN})
	require.False(t, ok)
}

func TestScriptHashRoundTrip(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(20 - i)
	}

	p2sh, err := script.NewP2SH(hash)
	require.NoError(t, err)

	extracted, ok := script.ScriptHash(p2sh)
	require.True(t, ok)
	require.Equal(t, hash, extracted)

	_, ok = script.ScriptHash([]byte{txscript.OP_RETURN})
	require.False(t, ok)
}

func TestNewScriptRejectsWrongLength(t *testing.T) {
	_, err := script.NewP2PKH([]byte{0x01, 0x02})
	require.Error(t, err)

	_, err = script.NewP2WPKH(nil)
	require.Error(t, err)

	_, err = script.NewP2SH(make([]byte, 21))
	require.Error(t, err)
}

func TestASMRoundTrip(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i + 5)
	}

	original, err := script.NewP2PKH(hash)
	require.NoError(t, err)

	asm, err := script.ToASM(original)
	require.NoError(t, err)

	decoded, err := script.FromASM(asm)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestFromASMRejectsGarbage(t *testing.T) {
	_, err := script.FromASM("OP_DUP not-hex-and-not-an-opcode")
	require.Error(t, err)
}

func TestEncodeSignature(t *testing.T) {
	der, err := hex.DecodeString("3045022100aa")
	require.NoError(t, err)

	encoded := script.EncodeSignature(der, txscript.SigHashAll)
	require.Len(t, encoded, len(der)+1)
	require.Equal(t, byte(txscript.SigHashAll), encoded[len(encoded)-1])
	require.Equal(t, der, encoded[:len(der)])
}
