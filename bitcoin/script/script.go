// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package script classifies and synthesizes the small set of output
// scripts the builder understands, and encodes/decodes the pieces a
// signer needs: DER signatures with a hashType suffix, and script ASM.
package script

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/txscript"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is what HASH160 is defined over
)

// Type tags a recognized output-script shape.
type Type string

const (
	// P2PKH is a pay-to-pubkey-hash output.
	P2PKH Type = "P2PKH"
	// P2WPKH is a pay-to-witness-pubkey-hash output.
	P2WPKH Type = "P2WPKH"
	// P2SH is a pay-to-script-hash output.
	P2SH Type = "P2SH"
	// NonStandard is anything this builder does not recognize.
	NonStandard Type = "NONSTANDARD"
)

// hashLen is the length of a HASH160 digest, used by every script shape
// this builder recognizes.
const hashLen = 20

// Classify returns the Type of script, matched structurally against the
// three shapes the builder supports. Anything else is NonStandard.
func Classify(pkScript []byte) Type {
	switch {
	case isP2PKH(pkScript):
		return P2PKH
	case isP2WPKH(pkScript):
		return P2WPKH
	case isP2SH(pkScript):
		return P2SH
	default:
		return NonStandard
	}
}

// isP2PKH matches OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG.
func isP2PKH(s []byte) bool {
	return len(s) == 25 &&
		s[0] == txscript.OP_DUP &&
		s[1] == txscript.OP_HASH160 &&
		s[2] == txscript.OP_DATA_20 &&
		s[23] == txscript.OP_EQUALVERIFY &&
		s[24] == txscript.OP_CHECKSIG
}

// isP2WPKH matches OP_0 <20 bytes>.
func isP2WPKH(s []byte) bool {
	return len(s) == 22 &&
		s[0] == txscript.OP_0 &&
		s[1] == txscript.OP_DATA_20
}

// isP2SH matches OP_HASH160 <20 bytes> OP_EQUAL.
func isP2SH(s []byte) bool {
	return len(s) == 23 &&
		s[0] == txscript.OP_HASH160 &&
		s[1] == txscript.OP_DATA_20 &&
		s[22] == txscript.OP_EQUAL
}

// PubKeyHash extracts the 20-byte hash from a P2PKH or P2WPKH script.
func PubKeyHash(s []byte) ([]byte, bool) {
	switch Classify(s) {
	case P2PKH:
		return s[3:23], true
	case P2WPKH:
		return s[2:22], true
	default:
		return nil, false
	}
}

// ScriptHash extracts the 20-byte hash from a P2SH script.
func ScriptHash(s []byte) ([]byte, bool) {
	if Classify(s) != P2SH {
		return nil, false
	}

	return s[2:22], true
}

// NewP2PKH builds a pay-to-pubkey-hash script over the given 20-byte hash.
func NewP2PKH(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != hashLen {
		return nil, errors.New("pubKeyHash must be 20 bytes")
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// NewP2WPKH builds a pay-to-witness-pubkey-hash script over the given
// 20-byte hash.
func NewP2WPKH(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != hashLen {
		return nil, errors.New("pubKeyHash must be 20 bytes")
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(pubKeyHash).
		Script()
}

// NewP2SH builds a pay-to-script-hash script over the given 20-byte hash.
func NewP2SH(scriptHash []byte) ([]byte, error) {
	if len(scriptHash) != hashLen {
		return nil, errors.New("scriptHash must be 20 bytes")
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// ToASM renders a script in disassembled form.
func ToASM(s []byte) (string, error) {
	return txscript.DisasmString(s)
}

// FromASM parses a script back from its disassembled form. Each
// whitespace-separated token is resolved against txscript's opcode
// table first; anything unresolved is treated as a hex data push, the
// inverse of what DisasmString produces for pushed data.
func FromASM(asm string) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, tok := range strings.Fields(asm) {
		if op, ok := txscript.OpcodeByName[strings.ToUpper(tok)]; ok {
			builder.AddOp(op)
			continue
		}

		data, err := hex.DecodeString(tok)
		if err != nil {
			return nil, errors.New("unrecognized ASM token: " + tok)
		}
		builder.AddData(data)
	}

	return builder.Script()
}

// Hash160 computes RIPEMD160(SHA256(data)), the digest every script
// shape this package builds is keyed on.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)

	r := ripemd160.New()
	r.Write(sha[:])

	return r.Sum(nil)
}

// EncodeSignature appends the one-byte hashType suffix to a DER-encoded
// ECDSA signature, as required wherever a signature is placed into a
// scriptSig or witness stack.
func EncodeSignature(der []byte, hashType txscript.SigHashType) []byte {
	out := make([]byte, len(der)+1)
	copy(out, der)
	out[len(der)] = byte(hashType)

	return out
}
