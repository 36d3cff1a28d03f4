// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package keys wraps the elliptic-curve key pair operations the
// builder's signer needs: loading from WIF and signing a 32-byte
// digest, bound to the real btcsuite/btcd curve implementation rather
// than reinvented.
package keys

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// KeyPair is a secp256k1 private/public key pair, optionally bound to
// the network it was encoded for so the builder can reject
// cross-network use.
type KeyPair struct {
	priv *btcec.PrivateKey
	wif  *btcutil.WIF
}

// FromWIF loads a key pair from a WIF-encoded private key. The
// network the WIF was encoded for is preserved for later consistency
// checks via ConsistentWithNetwork.
func FromWIF(wif string) (*KeyPair, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, err
	}

	return &KeyPair{priv: decoded.PrivKey, wif: decoded}, nil
}

// New wraps a raw private key with no network binding.
func New(priv *btcec.PrivateKey) *KeyPair {
	return &KeyPair{priv: priv}
}

// PubKey returns the serialized public key, compressed unless the
// originating WIF requested an uncompressed encoding.
func (k *KeyPair) PubKey() []byte {
	if k.wif != nil && !k.wif.CompressPubKey {
		return k.priv.PubKey().SerializeUncompressed()
	}

	return k.priv.PubKey().SerializeCompressed()
}

// ConsistentWithNetwork reports whether this key pair was encoded for
// the given network. A key pair with no recorded network (constructed
// via New) is always consistent.
func (k *KeyPair) ConsistentWithNetwork(params *chaincfg.Params) bool {
	if k.wif == nil {
		return true
	}

	return k.wif.IsForNet(params)
}

// Sign produces a DER-encoded ECDSA signature over a 32-byte sighash
// digest. The caller appends the hashType suffix separately.
func (k *KeyPair) Sign(digest [32]byte) []byte {
	sig := ecdsa.Sign(k.priv, digest[:])

	return sig.Serialize()
}
