// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// FuncName returns the import path and bare name of a function value as
// the runtime reports them. Method expressions and method values yield
// the method name; closures yield names like "func1".
func FuncName(fn reflect.Value) (pkg, name string) {
	function := runtime.FuncForPC(fn.Pointer())
	if function == nil {
		return "", ""
	}
	full := stripTypeArgs(function.Name())

	// The package path ends at the first dot after the last slash.
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	pkg = full[:slash+1+dot]
	rest := full[slash+1+dot+1:]

	rest = strings.TrimSuffix(rest, "-fm")
	if index := strings.LastIndex(rest, "."); index >= 0 {
		rest = rest[index+1:]
	}
	return pkg, rest
}

// stripTypeArgs removes the "[...]" the runtime appends to generic
// instances, including those inside receiver expressions like
// "pkg.(*Set[...]).Add".
func stripTypeArgs(name string) string {
	if !strings.Contains(name, "[") {
		return name
	}
	var builder strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// IsClosure reports whether name is a compiler-generated closure name.
func IsClosure(name string) bool {
	digits := strings.TrimPrefix(name, "func")
	if digits == name || digits == "" {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SnakeCase converts a Go identifier to snake_case: "MaxCount" becomes
// "max_count" and "HTTPPort" becomes "http_port". Existing underscores
// are kept.
func SnakeCase(name string) string {
	runes := []rune(name)
	var builder strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			previous := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(previous) || unicode.IsDigit(previous) || (unicode.IsUpper(previous) && nextLower) {
				builder.WriteByte('_')
			}
		}
		builder.WriteRune(unicode.ToLower(r))
	}
	return builder.String()
}
