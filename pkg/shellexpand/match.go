// match.go: the wildcard matcher and its fuzzy completion variant
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// MatchType is the ordered ranking of how a completion candidate
// matched a typed prefix, per spec §4.3. Smaller is better.
type MatchType uint8

const (
	MatchExact MatchType = iota
	MatchPrefix
	MatchCaseInsensitiveExact
	MatchCaseInsensitivePrefix
	MatchSubstring
	MatchCaseInsensitiveSubstring
	MatchSubsequenceInsertionsOnly
	MatchNone
)

// MatchRank is the tuple used to order completion records (spec §4.3
// and glossary entry "Match rank"). Smaller is better, compared
// lexicographically field by field.
type MatchRank struct {
	Type             MatchType
	PrimaryDistance  int
	SecondaryDistance int
}

// Less reports whether r sorts before other.
func (r MatchRank) Less(other MatchRank) bool {
	if r.Type != other.Type {
		return r.Type < other.Type
	}
	if r.PrimaryDistance != other.PrimaryDistance {
		return r.PrimaryDistance < other.PrimaryDistance
	}
	return r.SecondaryDistance < other.SecondaryDistance
}

// noMatchRank is the maximal rank, returned when nothing matched.
var noMatchRank = MatchRank{Type: MatchNone}

// Match implements the exact wildcard predicate of spec §4.3 over the
// internal Atom alphabet. firstSegment must be true only at the
// matcher's outermost call; recursive calls always pass false.
func Match(text, pattern WideString, firstSegment bool) bool {
	if isDotOrDotDot(text) {
		return text.Equal(pattern)
	}
	return matchRec(text, pattern, firstSegment)
}

func isDotOrDotDot(text WideString) bool {
	s := text.PlainString()
	return s == "." || s == ".."
}

func matchRec(text, pattern WideString, firstSegment bool) bool {
	if len(pattern) == 0 {
		return len(text) == 0
	}

	head := pattern[0]
	if head.IsSentinel(AnyString) || head.IsSentinel(AnyStringRecursive) {
		if firstSegment && len(text) > 0 && text[0].Char == '.' && text[0].Class == AtomOrdinary {
			return false
		}
		rest := pattern[1:]
		for split := 0; split <= len(text); split++ {
			if matchRec(text[split:], rest, false) {
				return true
			}
		}
		return false
	}

	if head.IsSentinel(AnyChar) {
		if firstSegment && len(text) > 0 && text[0].Char == '.' && text[0].Class == AtomOrdinary {
			return false
		}
		if len(text) == 0 {
			return false
		}
		return matchRec(text[1:], pattern[1:], false)
	}

	if len(text) == 0 {
		return false
	}

	if text[0] != head {
		return false
	}
	return matchRec(text[1:], pattern[1:], false)
}

// FuzzyMatch implements the completion-only fuzzy ranking of spec
// §4.3: exact, literal prefix, case-insensitive equality, case
// insensitive prefix, substring, case-insensitive substring, and
// finally subsequence-by-insertion-only. The first rule that matches
// wins. Substring ranks use the match offset as SecondaryDistance. The
// subsequence rank sets SecondaryDistance to offset*1000 plus
// smetrics's Wagner-Fischer edit distance against the typed prefix, so
// closer spellings sort first among same-offset candidates.
func FuzzyMatch(candidate, typed string) MatchRank {
	if typed == "" {
		return MatchRank{Type: MatchExact, PrimaryDistance: len(candidate)}
	}

	distance := len(candidate) - len(typed)

	if candidate == typed {
		return MatchRank{Type: MatchExact, PrimaryDistance: distance}
	}
	if strings.HasPrefix(candidate, typed) {
		return MatchRank{Type: MatchPrefix, PrimaryDistance: distance}
	}

	lowerCandidate := strings.ToLower(candidate)
	lowerTyped := strings.ToLower(typed)

	if lowerCandidate == lowerTyped {
		return MatchRank{Type: MatchCaseInsensitiveExact, PrimaryDistance: distance}
	}
	if strings.HasPrefix(lowerCandidate, lowerTyped) {
		return MatchRank{Type: MatchCaseInsensitivePrefix, PrimaryDistance: distance}
	}

	if idx := strings.Index(candidate, typed); idx >= 0 {
		return MatchRank{Type: MatchSubstring, PrimaryDistance: distance, SecondaryDistance: idx}
	}
	if idx := strings.Index(lowerCandidate, lowerTyped); idx >= 0 {
		return MatchRank{Type: MatchCaseInsensitiveSubstring, PrimaryDistance: distance, SecondaryDistance: idx}
	}

	if offset, ok := subsequenceInsertionOffset(lowerCandidate, lowerTyped); ok {
		edits := smetrics.WagnerFischer(lowerCandidate, lowerTyped, 1, 1, 1)
		return MatchRank{Type: MatchSubsequenceInsertionsOnly, PrimaryDistance: distance, SecondaryDistance: offset*1000 + edits}
	}

	return noMatchRank
}

// subsequenceInsertionOffset reports whether every rune of typed
// appears, in order, somewhere inside candidate — each candidate
// character either matches the next typed character or is an
// "insertion" the user didn't type. Returns the byte offset of the
// first match.
func subsequenceInsertionOffset(candidate, typed string) (int, bool) {
	tr := []rune(typed)
	if len(tr) == 0 {
		return 0, true
	}

	ti := 0
	firstOffset := -1
	offset := 0
	for _, r := range candidate {
		if ti < len(tr) && unicode.ToLower(r) == unicode.ToLower(tr[ti]) {
			if firstOffset < 0 {
				firstOffset = offset
			}
			ti++
		}
		offset += len(string(r))
	}
	if ti == len(tr) {
		return firstOffset, true
	}
	return 0, false
}
