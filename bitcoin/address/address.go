// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package address converts between address strings and output scripts,
// bound to a chaincfg.Params so that addresses encoded for the wrong
// network are rejected rather than silently accepted.
package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ErrNetworkMismatch is returned when an address cannot be decoded
// against the given network, or decodes but was not encoded for it.
var ErrNetworkMismatch = errors.New("Invalid version or Network mismatch")

// ToOutputScript resolves an address string against the given network
// and returns its output script.
func ToOutputScript(addr string, params *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, ErrNetworkMismatch
	}

	if !decoded.IsForNet(params) {
		return nil, ErrNetworkMismatch
	}

	return txscript.PayToAddrScript(decoded)
}
