// config.go: shell-core configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import "time"

// ShellConfig holds the bounds and feature switches a Shell enforces,
// following the teacher's DefaultXConfig() pattern (SecurityConfig,
// ValidationConfig).
type ShellConfig struct {
	// MaxPathLength limits the byte length of any path handed to the
	// wildcard walker.
	MaxPathLength int
	// MaxPathDepth limits the number of '/'-separated segments a
	// wildcard pattern may expand through.
	MaxPathDepth int
	// MaxArgLength limits the decoded length of a single expansion
	// pipeline argument.
	MaxArgLength int
	// UserCompletionDeadline bounds how long user-name completion may
	// iterate the password database (spec §4.6).
	UserCompletionDeadline time.Duration
	// CaseInsensitiveFilesystem enables a secondary case-insensitive
	// match pass in the wildcard walker for platforms whose filesystem
	// does not distinguish case (see SPEC_FULL.md's supplemented
	// feature list).
	CaseInsensitiveFilesystem bool
}

// DefaultShellConfig returns the default bounds, mirroring the
// teacher's DefaultSecurityConfig/DefaultValidationConfig shape.
func DefaultShellConfig() ShellConfig {
	return ShellConfig{
		MaxPathLength:             4096,
		MaxPathDepth:              50,
		MaxArgLength:              1 << 20,
		UserCompletionDeadline:    200 * time.Millisecond,
		CaseInsensitiveFilesystem: false,
	}
}
