// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
)

// serializeTx renders tx in its full wire encoding, witness included.
func serializeTx(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// hexEncode lower-cases the hex encoding of raw, the conventional form
// for printing a transaction.
func hexEncode(raw []byte) string {
	return hex.EncodeToString(raw)
}
