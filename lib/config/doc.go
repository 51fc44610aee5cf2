// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional configuration file of a cliche
// program.
//
// The file is named explicitly: by the <APP>_CONFIG environment variable
// (via [Load]) or by a path the program passes in (via [LoadFile]).
// There is no ~/.config discovery and no search path. A program run
// without a configuration file uses [Default].
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; everything else is YAML. Three sections are
// recognized:
//
//	output:
//	  format: json        # json, raw, yaml or cbor
//	  indent: 4
//	  color: auto         # auto, always or never
//	logging:
//	  level: warn
//	defaults:
//	  add-item:
//	    count: 3
//	    owner: ${USER:-nobody}
//
// Values under defaults replace the defaults a command declares in its
// struct tags. String values go through ${VAR} and ${VAR:-default}
// expansion against the process environment.
//
// This package depends on no other cliche packages.
package config
