// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// encMode uses Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items.
var encMode cbor.EncMode

var diagMode cbor.DiagMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Values with a text form (netip.Addr, enumerations with
	// MarshalText) encode as text strings, matching their JSON output.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	diagMode, err = cbor.DiagOptions{
		ByteStringText:          true,
		FloatPrecisionIndicator: false,
	}.DiagMode()
	if err != nil {
		panic("codec: CBOR diagnostic mode initialization failed: " + err.Error())
	}
}

// marshal encodes v to CBOR using Core Deterministic Encoding.
func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Diagnose returns the diagnostic notation of v's CBOR encoding.
func Diagnose(v any) (string, error) {
	data, err := marshal(v)
	if err != nil {
		return "", err
	}
	return diagMode.Diagnose(data)
}

// schemaDomainKey separates argument-schema fingerprints from any other
// use of keyed BLAKE3. The bytes are the ASCII domain name, zero-padded
// to 32 bytes.
var schemaDomainKey = [32]byte{
	'c', 'l', 'i', 'c', 'h', 'e', '.', 'a', 'r', 'g', 'u', 'm', 'e', 'n', 't', '-',
	's', 'c', 'h', 'e', 'm', 'a', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns the hex BLAKE3 digest of v's deterministic CBOR
// encoding, keyed to the argument-schema domain.
func Fingerprint(v any) (string, error) {
	data, err := marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec: encoding fingerprint input: %w", err)
	}
	hasher, err := blake3.NewKeyed(schemaDomainKey[:])
	if err != nil {
		return "", fmt.Errorf("codec: %w", err)
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
