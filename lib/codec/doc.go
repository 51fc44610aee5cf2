// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds cliche's CBOR configuration.
//
// Command results are printed as JSON by default. CBOR serves two other
// purposes:
//
//   - the "cbor" output format, which prints a result in CBOR
//     diagnostic notation (RFC 8949 §8) so integer/float and byte/text
//     distinctions stay visible;
//   - fingerprints of argument schemas, which hash the Core
//     Deterministic Encoding (RFC 8949 §4.2) of the schema with keyed
//     BLAKE3. Same logical schema, same bytes, same fingerprint.
package codec
