// walk.go: the wildcard walker
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"syscall"
)

// WalkMatch is one filesystem match produced by WildcardExpand: the
// full path, and — in completion mode — the record a caller would
// surface to the user.
type WalkMatch struct {
	Path   string
	IsDir  bool
	Record CompletionRecord
}

// WalkOptions configures a single WildcardExpand call.
type WalkOptions struct {
	Flags     ExpandFlags
	FileStat  FileStat
	Canceller Canceller
	// Typed is the fuzzy-completion prefix already consumed for the
	// segment under evaluation; used to seed FuzzyMatch ranks.
	Typed string
	// CaseInsensitiveFilesystem enables the supplemented case-folding
	// fallback match (ShellConfig.CaseInsensitiveFilesystem).
	CaseInsensitiveFilesystem bool
	// Bounds limits the length and '/'-depth of the starting path
	// (defaults to DefaultShellConfig's bounds when zero).
	Bounds PathBounds
}

// PathBounds limits the length and '/'-count of baseDir joined with the
// pattern, checked once in WildcardExpand before the walk starts; paths
// reached during the walk are not checked again. Adapted from the teacher's
// SecurityConfig.MaxPathLength/MaxPathDepth layered checks
// (security.go's ValidateSecurePath, layers 2 and 5).
type PathBounds struct {
	MaxPathLength int
	MaxPathDepth  int
}

func (b PathBounds) fill() PathBounds {
	if b.MaxPathLength == 0 {
		b.MaxPathLength = 4096
	}
	if b.MaxPathDepth == 0 {
		b.MaxPathDepth = 50
	}
	return b
}

// pathTooLongError builds the error for a path exceeding PathBounds.MaxPathLength.
func pathTooLongError(path string, max int) *ShellError {
	return NewShellError(ErrCodeSyntax, -1, fmt.Sprintf("path too long (max %d characters): %s", max, path)).
		WithUserMessage("path too long")
}

// pathTooDeepError builds the error for a path exceeding PathBounds.MaxPathDepth.
func pathTooDeepError(path string, max int) *ShellError {
	return NewShellError(ErrCodeSyntax, -1, fmt.Sprintf("path too complex (max depth %d): %s", max, path)).
		WithUserMessage("path too complex")
}

func (o WalkOptions) completing() bool { return o.Flags.Has(ForCompletions) }
func (o WalkOptions) fuzzy() bool      { return o.Flags.Has(FuzzyMatchFlag) }

// fileIdentity is the device+inode pair used to detect symlink loops
// (spec §3.6, glossary "Visited-files set").
type fileIdentity struct {
	dev, ino uint64
}

func identityOf(info os.FileInfo) (fileIdentity, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, false
	}
	return fileIdentity{dev: uint64(st.Dev), ino: st.Ino}, true
}

// walkState carries the per-walk visited-directory set (§3.6) and the
// current segment depth (used for the first_segment hidden-dot rule),
// threaded explicitly through recursive calls rather than held in an
// ambient mutable global.
type walkState struct {
	visited map[fileIdentity]bool
	depth   int
}

func newWalkState() *walkState {
	return &walkState{visited: make(map[fileIdentity]bool)}
}

// WildcardExpand runs the wildcard walker of spec §4.4 over pattern,
// rooted at baseDir. pattern must already have any leading base-dir
// prefix (the part before the first '/', resolved by the expansion
// pipeline's wildcard pass) stripped.
func WildcardExpand(pattern WideString, baseDir string, opts WalkOptions) ([]WalkMatch, error) {
	if opts.FileStat == nil {
		opts.FileStat = osFileStat{}
	}
	if opts.Canceller == nil {
		opts.Canceller = NeverCancelled
	}
	opts.Bounds = opts.Bounds.fill()

	full := joinPath(baseDir, pattern.PlainString())
	if len(full) > opts.Bounds.MaxPathLength {
		return nil, pathTooLongError(full, opts.Bounds.MaxPathLength)
	}
	if depth := strings.Count(full, "/"); depth > opts.Bounds.MaxPathDepth {
		return nil, pathTooDeepError(full, opts.Bounds.MaxPathDepth)
	}

	return walkSegment(baseDir, pattern, newWalkState(), opts)
}

func walkSegment(dir string, pattern WideString, st *walkState, opts WalkOptions) ([]WalkMatch, error) {
	if opts.Canceller.IsCancelled() {
		return nil, CancelledError()
	}

	firstSegment := st.depth == 0

	segment, hasSlash, remainder := splitNextSlash(pattern)

	if len(segment) == 0 {
		if hasSlash {
			// Adjacent slashes: an empty segment, skip it.
			return walkSegment(dir, remainder, st, opts)
		}
		if !hasSlash && len(pattern) == 0 {
			return emitBaseDir(dir, opts)
		}
	}

	if hasRecursiveWildcard(segment) && len(segment) == 1 {
		return walkRecursive(dir, pattern, st, opts)
	}

	if !hasWildcard(segment) {
		literal := segment.PlainString()
		full := joinPath(dir, literal)

		if hasSlash {
			info, err := opts.FileStat.Stat(full)
			if err != nil || !info.IsDir() {
				return nil, nil
			}
			st.depth++
			results, err := recurseInto(full, info, remainder, st, opts)
			st.depth--
			if err != nil {
				return nil, err
			}
			if len(results) == 0 && opts.fuzzy() && opts.completing() && !opts.Flags.Has(NoFuzzyDirectories) {
				return fuzzySiblingRetry(dir, literal, remainder, st, opts)
			}
			return results, nil
		}

		info, err := opts.FileStat.Stat(full)
		if err != nil {
			return nil, nil
		}
		return []WalkMatch{matchFromStat(full, literal, info, opts, MatchRank{Type: MatchExact})}, nil
	}

	entries, err := opts.FileStat.ReadDir(dir)
	if err != nil {
		return nil, nil
	}
	sortEntries(entries)

	var results []WalkMatch
	for _, e := range entries {
		name := e.Name()
		if firstSegment && strings.HasPrefix(name, ".") && !opts.completing() {
			continue
		}
		if firstSegment && strings.HasPrefix(name, ".") && opts.completing() {
			// Hidden entries are still excluded from wildcard
			// completion unless the typed text itself starts with a
			// dot — spec §4.3's first_segment rule applies identically
			// in completion mode.
			if !strings.HasPrefix(opts.Typed, ".") {
				continue
			}
		}

		if !opts.completing() {
			if !matchSegment(name, segment, firstSegment, opts.CaseInsensitiveFilesystem) {
				continue
			}
		}

		full := joinPath(dir, name)

		if hasSlash {
			info, err := opts.FileStat.Stat(full)
			if err != nil || !info.IsDir() {
				continue
			}
			if opts.completing() {
				rank := FuzzyMatch(name, segment.PlainString())
				if rank.Type == MatchNone {
					continue
				}
			}
			id, hasID := identityOf(info)
			if hasID {
				if st.visited[id] {
					continue
				}
				st.visited[id] = true
			}
			st.depth++
			sub, err := walkSegment(full, remainder, st, opts)
			st.depth--
			if hasID {
				delete(st.visited, id)
			}
			if err != nil {
				return nil, err
			}
			results = append(results, sub...)
			continue
		}

		// Final wildcard segment.
		if opts.completing() {
			rank := FuzzyMatch(name, segment.PlainString())
			if rank.Type == MatchNone {
				continue
			}
			info, statErr := opts.FileStat.Stat(full)
			if statErr == nil && !passesTypeFilter(info, opts.Flags, opts.FileStat, full) {
				continue
			}
			results = append(results, matchFromStat(full, name, info, opts, rank))
			continue
		}

		info, statErr := opts.FileStat.Stat(full)
		if statErr != nil {
			continue
		}
		if !passesTypeFilter(info, opts.Flags, opts.FileStat, full) {
			continue
		}
		results = append(results, matchFromStat(full, name, info, opts, MatchRank{Type: MatchExact}))
	}

	sortMatches(results, opts.completing())
	return results, nil
}

func recurseInto(full string, info os.FileInfo, remainder WideString, st *walkState, opts WalkOptions) ([]WalkMatch, error) {
	id, hasID := identityOf(info)
	if hasID {
		if st.visited[id] {
			return nil, nil
		}
		st.visited[id] = true
		defer delete(st.visited, id)
	}
	return walkSegment(full, remainder, st, opts)
}

// walkRecursive handles a "**" segment, per spec §4.4: it matches the
// current directory's entries against the head (itself, since a bare
// "**" matches any run of characters including "/"), and separately
// recurses into every subdirectory with the pattern unchanged so "**"
// can also consume across directory boundaries.
func walkRecursive(dir string, pattern WideString, st *walkState, opts WalkOptions) ([]WalkMatch, error) {
	_, hasSlash, remainder := splitNextSlash(pattern)

	entries, err := opts.FileStat.ReadDir(dir)
	if err != nil {
		return nil, nil
	}
	sortEntries(entries)

	firstSegment := st.depth == 0
	var results []WalkMatch

	for _, e := range entries {
		name := e.Name()
		if firstSegment && strings.HasPrefix(name, ".") {
			continue
		}
		full := joinPath(dir, name)
		info, statErr := opts.FileStat.Stat(full)
		if statErr != nil {
			continue
		}

		if hasSlash {
			if !info.IsDir() {
				continue
			}
			sub, err := recurseInto(full, info, remainder, st, opts)
			if err != nil {
				return nil, err
			}
			results = append(results, sub...)
		} else {
			if !passesTypeFilter(info, opts.Flags, opts.FileStat, full) {
				continue
			}
			results = append(results, matchFromStat(full, name, info, opts, MatchRank{Type: MatchExact}))
		}

		if info.IsDir() {
			st.depth++
			sub, err := recurseInto(full, info, pattern, st, opts)
			st.depth--
			if err != nil {
				return nil, err
			}
			results = append(results, sub...)
		}
	}

	sortMatches(results, opts.completing())
	return results, nil
}

// fuzzySiblingRetry re-opens the parent directory and retries every
// sibling when a non-wildcard segment yielded no matches, per spec
// §4.4's fuzzy-directory-substitution rule.
func fuzzySiblingRetry(dir, typedLiteral string, remainder WideString, st *walkState, opts WalkOptions) ([]WalkMatch, error) {
	entries, err := opts.FileStat.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	var results []WalkMatch
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rank := FuzzyMatch(e.Name(), typedLiteral)
		if rank.Type == MatchNone {
			continue
		}
		full := joinPath(dir, e.Name())
		info, statErr := opts.FileStat.Stat(full)
		if statErr != nil || !info.IsDir() {
			continue
		}
		sub, err := recurseInto(full, info, remainder, st, opts)
		if err != nil {
			return nil, err
		}
		for _, m := range sub {
			weaker := rank
			if rank.Less(m.Record.Rank) {
				weaker = m.Record.Rank
			}
			m.Record.Flags |= ReplacesToken
			m.Record.Rank = weaker
			results = append(results, m)
		}
	}
	return results, nil
}

func emitBaseDir(dir string, opts WalkOptions) ([]WalkMatch, error) {
	info, err := opts.FileStat.Stat(dir)
	if err != nil {
		return nil, nil
	}
	if !opts.completing() {
		return []WalkMatch{{Path: dir, IsDir: info.IsDir()}}, nil
	}
	entries, err := opts.FileStat.ReadDir(dir)
	if err != nil {
		return nil, nil
	}
	var results []WalkMatch
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := joinPath(dir, e.Name())
		einfo, statErr := opts.FileStat.Stat(full)
		if statErr != nil {
			continue
		}
		results = append(results, matchFromStat(full, e.Name(), einfo, opts, MatchRank{Type: MatchExact}))
	}
	sortMatches(results, true)
	return results, nil
}

func splitNextSlash(pattern WideString) (segment WideString, hasSlash bool, remainder WideString) {
	for i, a := range pattern {
		if a.Class == AtomOrdinary && a.Char == '/' {
			return pattern[:i], true, pattern[i+1:]
		}
	}
	return pattern, false, nil
}

// matchSegment tries the exact matcher first and, only if it fails
// and the filesystem is known to be case-insensitive, retries with
// both the entry name and the pattern's literal runs folded to lower
// case (spec-supplemented feature, see SPEC_FULL.md).
func matchSegment(name string, segment WideString, firstSegment, caseInsensitive bool) bool {
	if Match(NewWideString(name), segment, firstSegment) {
		return true
	}
	if !caseInsensitive {
		return false
	}
	return Match(NewWideString(strings.ToLower(name)), foldSegment(segment), firstSegment)
}

func foldSegment(segment WideString) WideString {
	out := make(WideString, len(segment))
	for i, a := range segment {
		if a.Class == AtomOrdinary {
			out[i] = Ch([]rune(strings.ToLower(string(a.Char)))[0])
			continue
		}
		out[i] = a
	}
	return out
}

func hasWildcard(segment WideString) bool {
	for _, a := range segment {
		if a.IsSentinel(AnyChar) || a.IsSentinel(AnyString) || a.IsSentinel(AnyStringRecursive) {
			return true
		}
	}
	return false
}

func hasRecursiveWildcard(segment WideString) bool {
	for _, a := range segment {
		if a.IsSentinel(AnyStringRecursive) {
			return true
		}
	}
	return false
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

func sortEntries(entries []os.DirEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
}

func sortMatches(results []WalkMatch, completing bool) {
	sort.SliceStable(results, func(i, j int) bool {
		if completing {
			ri, rj := results[i].Record.Rank, results[j].Record.Rank
			if ri.Type != rj.Type || ri.PrimaryDistance != rj.PrimaryDistance || ri.SecondaryDistance != rj.SecondaryDistance {
				return ri.Less(rj)
			}
		}
		return filenameLess(path.Base(results[i].Path), path.Base(results[j].Path))
	})
}

// filenameLess implements the codepoint-wise, case-folded, dotfiles-
// after-non-dotfiles comparison of spec §4.4.
func filenameLess(a, b string) bool {
	aDot := strings.HasPrefix(a, ".")
	bDot := strings.HasPrefix(b, ".")
	if aDot != bDot {
		return !aDot
	}
	al, bl := strings.ToLower(a), strings.ToLower(b)
	if al != bl {
		return al < bl
	}
	return a < b
}

// passesTypeFilter honors EXECUTABLES_ONLY/DIRECTORIES_ONLY (spec §4.4).
func passesTypeFilter(info os.FileInfo, flags ExpandFlags, fs FileStat, full string) bool {
	if flags.Has(DirectoriesOnly) && !info.IsDir() {
		return false
	}
	if flags.Has(ExecutablesOnly) && !info.IsDir() && !fs.AccessExecutable(full) {
		return false
	}
	return true
}

// matchFromStat builds a WalkMatch, filling in the completion
// description table of spec §4.6 when in completion mode.
func matchFromStat(full, name string, info os.FileInfo, opts WalkOptions, rank MatchRank) WalkMatch {
	isDir := info != nil && info.IsDir()
	m := WalkMatch{Path: full, IsDir: isDir}
	if !opts.completing() {
		return m
	}

	rec := CompletionRecord{Completion: name, Rank: rank}
	if isDir {
		rec.Completion += "/"
		rec.Flags |= NoSpace
	}
	if !opts.Flags.Has(NoDescriptions) {
		rec.Description = describeFile(full, info, opts.FileStat)
	}
	m.Record = rec
	return m
}

// describeFile produces the human-readable description table of spec
// §4.6, adapted from the teacher's AnalyzeFilePermissions logic.
func describeFile(full string, info os.FileInfo, fs FileStat) string {
	if info == nil {
		return ""
	}

	lst, lerr := fs.Lstat(full)
	if lerr == nil && lst.Mode()&os.ModeSymlink != 0 {
		target, serr := fs.Stat(full)
		switch {
		case serr != nil:
			return "Rotten symbolic link"
		case target.IsDir():
			return "Symbolic link to directory"
		case fs.AccessExecutable(full):
			return "Executable link"
		default:
			return "Symbolic link"
		}
	}

	switch {
	case info.IsDir():
		return "Directory"
	case info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice != 0:
		return "Character device"
	case info.Mode()&os.ModeDevice != 0:
		return "Block device"
	case info.Mode()&os.ModeNamedPipe != 0:
		return "Fifo"
	case info.Mode()&os.ModeSocket != 0:
		return "Socket"
	case fs.AccessExecutable(full):
		return "Executable"
	default:
		return "File"
	}
}
