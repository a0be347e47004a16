// wide.go: the wide-string codec between host bytes and internal form
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import "unicode/utf8"

// BytesToWide decodes raw host bytes into a WideString, per spec §4.1.
// It never fails: any byte sequence the platform decoder (here,
// UTF-8) cannot decode is carried forward as a direct-byte atom and
// decoding resumes at the next byte. The null byte is preserved as an
// ordinary rune zero, not treated as a terminator.
func BytesToWide(b []byte) WideString {
	out := make(WideString, 0, len(b))
	for i := 0; i < len(b); {
		if b[i] == 0 {
			out = append(out, Ch(0))
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, DB(b[i]))
			i++
			continue
		}
		out = append(out, Ch(r))
		i += size
	}
	return out
}

// WideToBytes re-encodes a WideString to host bytes, per spec §4.1.
// INTERNAL_SEPARATOR is elided. Direct-byte atoms are emitted as their
// original byte. Any other atom that cannot be encoded (a sentinel
// other than InternalSeparator, or an ordinary atom whose rune is a
// surrogate or above 0x10FFFF) is rendered as '?'. The
// function never returns an error; degradation to '?' is advertised
// behavior, not a failure mode.
func WideToBytes(w WideString) []byte {
	out := make([]byte, 0, len(w))
	for _, a := range w {
		switch a.Class {
		case AtomSentinelClass:
			if a.Sentinel == InternalSeparator {
				continue
			}
			out = append(out, '?')
		case AtomDirectByte:
			out = append(out, a.Byte)
		default:
			if !utf8.ValidRune(a.Char) {
				out = append(out, '?')
				continue
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], a.Char)
			out = append(out, buf[:n]...)
		}
	}
	return out
}
