// types.go: shared flag and record types for the expansion/completion API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

// ExpandFlags is the bitset accepted by Expand/ExpandOne/WildcardExpand,
// per spec §6. No members beyond these are recognized.
type ExpandFlags uint16

const (
	SkipCmdSubst ExpandFlags = 1 << iota
	SkipVariables
	SkipWildcards
	ForCompletions
	ExecutablesOnly
	DirectoriesOnly
	NoDescriptions
	SkipJobs
	SkipHome
	FuzzyMatchFlag
	NoFuzzyDirectories
	SpecialForCD
	SpecialForCDAutosuggest
	SpecialForCommand
)

// Has reports whether every bit in want is set in f.
func (f ExpandFlags) Has(want ExpandFlags) bool { return f&want == want }

// CompletionFlags is the per-record bitset of spec §3.3/§6.
type CompletionFlags uint8

const (
	NoSpace CompletionFlags = 1 << iota
	ReplacesToken
	AutoSpace
	DontEscape
	NoCase
)

// Has reports whether every bit in want is set in f.
func (f CompletionFlags) Has(want CompletionFlags) bool { return f&want == want }

// CompletionRecord is one candidate in a completion list, per spec §3.3.
type CompletionRecord struct {
	Completion  string
	Description string
	Flags       CompletionFlags
	Rank        MatchRank
}

// ExpandStatus is the non-error outcome of an expansion pass, per
// spec §7: WildcardNoMatch is a status, not an error, except when the
// caller demands at least one match.
type ExpandStatus uint8

const (
	ExpandOk ExpandStatus = iota
	ExpandWildcardNoMatch
)
