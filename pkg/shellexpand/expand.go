// expand.go: the expansion pipeline
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"os"
	"strconv"
	"strings"

	timecache "github.com/agilira/go-timecache"
)

// ExpandContext bundles the external collaborators and flags that a
// single Expand call needs (spec §6), mirroring the way the teacher's
// app.go Run()→handleCommandExecution() chain threads one request
// struct through each stage instead of global state.
type ExpandContext struct {
	Variables VariableStore
	Eval      Evaluator
	Jobs      JobTable
	FileStat  FileStat
	Canceller Canceller
	Passwords PasswordDatabase
	BaseDir   string
	PID       int
	Config    ShellConfig

	// Logger, AuditLogger, Tracer and MetricsCollector are optional
	// observability collaborators (spec §6's ambient stack). A nil
	// value for any of them is a valid no-op.
	Logger           Logger
	AuditLogger      AuditLogger
	Tracer           Tracer
	MetricsCollector MetricsCollector
}

func (c *ExpandContext) fill() {
	if c.Variables == nil {
		c.Variables = newMapVariableStore()
	}
	if c.Eval == nil {
		c.Eval = nullEvaluator{}
	}
	if c.Jobs == nil {
		c.Jobs = emptyJobTable{}
	}
	if c.FileStat == nil {
		c.FileStat = osFileStat{}
	}
	if c.Canceller == nil {
		c.Canceller = NeverCancelled
	}
	if c.Passwords == nil {
		c.Passwords = newOSPasswordDatabase()
	}
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if c.Config.MaxPathLength == 0 {
		c.Config = DefaultShellConfig()
	}
}

// ExpandResult is the outcome of a full pipeline run.
type ExpandResult struct {
	Values []WideString
	Status ExpandStatus
}

// Expand runs the five ordered passes of spec §4.5 over input,
// returning the final list of literal arguments plus a status.
func Expand(ctx context.Context, input WideString, flags ExpandFlags, ec *ExpandContext) (ExpandResult, error) {
	ec.fill()
	_ = timecache.Now() // clock read; the value is not used by the pipeline

	if ec.Tracer != nil {
		var span Span
		ctx, span = ec.Tracer.StartSpan(ctx, "shellexpand.Expand")
		defer span.End()
	}
	if ec.AuditLogger != nil {
		ec.AuditLogger.LogCommand(ctx, input.PlainString(), nil, "")
	}
	if ec.MetricsCollector != nil {
		ec.MetricsCollector.Counter("shellexpand_expand_total", "Expand calls").Inc(ctx)
	}

	if n := len(input); n > ec.Config.MaxArgLength {
		return ExpandResult{}, traceFail(ec, ctx, argTooLongError(n, ec.Config.MaxArgLength))
	}

	worklist := []WideString{input}
	status := ExpandOk

	var err error
	done := tracePass(ec, ctx, "expand.pass.cmdsubst")
	worklist, err = passCommandSubstitution(ctx, worklist, flags, ec)
	done()
	if err != nil {
		return ExpandResult{}, traceFail(ec, ctx, err)
	}

	done = tracePass(ec, ctx, "expand.pass.variables")
	worklist, err = passVariableExpansion(worklist, flags, ec)
	done()
	if err != nil {
		return ExpandResult{}, traceFail(ec, ctx, err)
	}

	done = tracePass(ec, ctx, "expand.pass.braces")
	worklist, err = passBraceExpansion(worklist, flags)
	done()
	if err != nil {
		return ExpandResult{}, traceFail(ec, ctx, err)
	}

	done = tracePass(ec, ctx, "expand.pass.home_and_pid")
	worklist, err = passHomeAndPid(worklist, flags, ec)
	done()
	if err != nil {
		return ExpandResult{}, traceFail(ec, ctx, err)
	}

	done = tracePass(ec, ctx, "expand.pass.wildcard")
	worklist, status, err = passWildcard(worklist, flags, ec)
	done()
	if err != nil {
		return ExpandResult{}, traceFail(ec, ctx, err)
	}

	if status == ExpandWildcardNoMatch && ec.Logger != nil {
		ec.Logger.Info(ctx, "expand.wildcard_no_match", StringField("input", input.PlainString()))
	}

	for i, v := range worklist {
		kept := make(WideString, 0, len(v))
		for _, a := range v {
			if !a.IsSentinel(InternalSeparator) {
				kept = append(kept, a)
			}
		}
		worklist[i] = kept
	}

	return ExpandResult{Values: worklist, Status: status}, nil
}

// tracePass logs pass entry at Trace level and returns a function that
// logs pass exit, the ambient-logging pattern spec §6 requires around
// each of Expand's five ordered passes. A nil Logger makes both a no-op.
func tracePass(ec *ExpandContext, ctx context.Context, name string) func() {
	if ec.Logger == nil {
		return func() {}
	}
	ec.Logger.Trace(ctx, name+".enter")
	return func() { ec.Logger.Trace(ctx, name+".exit") }
}

// traceFail logs a cancellation at Info level (spec §6) and passes the
// error through unchanged, so every early-return site stays one line.
func traceFail(ec *ExpandContext, ctx context.Context, err error) error {
	if ec.Logger != nil {
		if se, ok := err.(*ShellError); ok && se.IsCancelled() {
			ec.Logger.Info(ctx, "expand.cancelled")
		}
	}
	return err
}

// ExpandOne runs Expand and requires exactly one result (spec §4.5).
func ExpandOne(ctx context.Context, input WideString, flags ExpandFlags, ec *ExpandContext) (WideString, error) {
	res, err := Expand(ctx, input, flags, ec)
	if err != nil {
		return nil, err
	}
	if len(res.Values) != 1 {
		return nil, MultipleResultsError()
	}
	return res.Values[0], nil
}

// passCommandSubstitution implements spec §4.5 step 1. It recurses
// until no parenthesized command substitution remains in any element.
func passCommandSubstitution(ctx context.Context, in []WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, error) {
	var out []WideString
	for _, s := range in {
		expanded, err := substituteOnce(ctx, s, flags, ec)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func substituteOnce(ctx context.Context, s WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, error) {
	open, close, ok := findParenPair(s)
	if !ok {
		return []WideString{s}, nil
	}
	if flags.Has(SkipCmdSubst) {
		return nil, CmdSubstForbiddenError(open)
	}

	inner := s[open+1 : close]
	lines, err := ec.Eval.EvalSubshell(ctx, inner.PlainString())
	if err != nil {
		return nil, CmdSubstFailedError(open, err)
	}

	after := close + 1
	lines, sliceErr := applySliceSelector(s, &after, lines)
	if sliceErr != nil {
		return nil, sliceErr
	}

	var substituted WideString
	substituted = append(substituted, s[:open]...)
	substituted = append(substituted, Sen(InternalSeparator))
	for i, line := range lines {
		if i > 0 {
			substituted = append(substituted, Sen(InternalSeparator))
		}
		literal := Escape(NewWideString(line), EscapeAll)
		substituted = append(substituted, literal...)
	}
	substituted = append(substituted, Sen(InternalSeparator))
	substituted = append(substituted, s[after:]...)

	return substituteOnce(ctx, substituted, flags, ec)
}

// findParenPair finds the innermost "(" ")" pair not inside a quote.
// Because Unescape already stripped quotes (leaving INTERNAL_SEPARATOR
// at their boundaries), a literal '(' here is always structural.
func findParenPair(s WideString) (open, closeIdx int, ok bool) {
	lastOpen := -1
	for i, a := range s {
		if a.Class != AtomOrdinary {
			continue
		}
		switch a.Char {
		case '(':
			lastOpen = i
		case ')':
			if lastOpen >= 0 {
				return lastOpen, i, true
			}
		}
	}
	return 0, 0, false
}

// applySliceSelector parses an optional "[i1,i2,i3-i5]" immediately
// after the closing paren (spec §4.5 step 1) and reorders/selects
// lines accordingly. *after is advanced past the selector if present.
func applySliceSelector(s WideString, after *int, lines []string) ([]string, error) {
	i := *after
	if i >= len(s) || s[i].Class != AtomOrdinary || s[i].Char != '[' {
		return lines, nil
	}
	end := -1
	for j := i + 1; j < len(s); j++ {
		if s[j].Class == AtomOrdinary && s[j].Char == ']' {
			end = j
			break
		}
	}
	if end < 0 {
		return lines, nil
	}

	spec := s[i+1 : end].PlainString()
	var result []string
	for _, part := range strings.Split(spec, ",") {
		idxs, err := resolveSliceTerm(part, len(lines))
		if err != nil {
			return nil, SyntaxError(i, "bad slice: "+err.Error())
		}
		for _, idx := range idxs {
			result = append(result, lines[idx])
		}
	}
	*after = end + 1
	return result, nil
}

func resolveSliceTerm(term string, n int) ([]int, error) {
	if dash := strings.IndexByte(term, '-'); dash > 0 {
		lo, err := resolveIndex(term[:dash], n)
		if err != nil {
			return nil, err
		}
		hi, err := resolveIndex(term[dash+1:], n)
		if err != nil {
			return nil, err
		}
		var out []int
		if lo <= hi {
			for i := lo; i <= hi; i++ {
				out = append(out, i)
			}
		} else {
			for i := lo; i >= hi; i-- {
				out = append(out, i)
			}
		}
		return out, nil
	}
	idx, err := resolveIndex(term, n)
	if err != nil {
		return nil, err
	}
	return []int{idx}, nil
}

// resolveIndex implements the 1-based, negative-from-end indexing
// spec §4.5/§9 inherits from the original: 0 is an error, -1 is the
// last element.
func resolveIndex(s string, n int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case v == 0:
		return 0, errBadSliceIndex
	case v > 0:
		if v > n {
			return 0, errBadSliceIndex
		}
		return v - 1, nil
	default:
		idx := n + v
		if idx < 0 {
			return 0, errBadSliceIndex
		}
		return idx, nil
	}
}

var errBadSliceIndex = sliceIndexError{}

type sliceIndexError struct{}

func (sliceIndexError) Error() string { return "index out of range" }

// passVariableExpansion implements spec §4.5 step 2, walking each
// string right-to-left so "$$foo" expands the inner $foo first.
func passVariableExpansion(in []WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, error) {
	if flags.Has(SkipVariables) {
		return in, nil
	}

	var out []WideString
	for _, s := range in {
		expanded, err := expandVariablesRightToLeft(s, ec)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandVariablesRightToLeft(s WideString, ec *ExpandContext) ([]WideString, error) {
	idx := lastVariableSentinel(s)
	if idx < 0 {
		return []WideString{s}, nil
	}

	single := s[idx].Sentinel == VariableExpandSingle
	nameEnd := idx + 1
	for nameEnd < len(s) && isIdentifierAtom(s[nameEnd]) {
		nameEnd++
	}
	if nameEnd == idx+1 {
		return nil, SyntaxError(idx, "expected variable name after $")
	}
	name := s[idx+1 : nameEnd].PlainString()

	after := nameEnd
	var hasSlice bool
	if after < len(s) && s[after].Class == AtomOrdinary && s[after].Char == '[' {
		end := -1
		for j := after + 1; j < len(s); j++ {
			if s[j].Class == AtomOrdinary && s[j].Char == ']' {
				end = j
				break
			}
		}
		if end >= 0 {
			hasSlice = true
			after = end + 1
		}
	}

	value, ok := ec.Variables.Get(context.Background(), name)
	prefix := s[:idx]
	suffix := s[after:]

	if !ok {
		if single {
			combined := prefix.Concat(suffix)
			return expandVariablesRightToLeft(combined, ec)
		}
		// An unquoted unset variable elides the whole argument (spec
		// §4.5 step 2), regardless of any surrounding literal text.
		return nil, nil
	}

	elements := value.Elements()
	if hasSlice {
		sliceSpec := s[nameEnd+1 : after-1].PlainString()
		var selected []string
		for _, part := range strings.Split(sliceSpec, ",") {
			idxs, err := resolveSliceTerm(part, len(elements))
			if err != nil {
				return nil, SyntaxError(idx, "bad slice: "+err.Error())
			}
			for _, j := range idxs {
				selected = append(selected, elements[j])
			}
		}
		elements = selected
	}

	if single {
		joined := strings.Join(elements, " ")
		combined := prefix.Concat(NewWideString(joined), suffix)
		return expandVariablesRightToLeft(combined, ec)
	}

	var results []WideString
	for _, elem := range elements {
		combined := prefix.Concat(NewWideString(elem), suffix)
		fannedOut, err := expandVariablesRightToLeft(combined, ec)
		if err != nil {
			return nil, err
		}
		results = append(results, fannedOut...)
	}
	return results, nil
}

func lastVariableSentinel(s WideString) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].IsSentinel(VariableExpand) || s[i].IsSentinel(VariableExpandSingle) {
			return i
		}
	}
	return -1
}

func isIdentifierAtom(a Atom) bool {
	if a.Class != AtomOrdinary {
		return false
	}
	c := a.Char
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// passBraceExpansion implements spec §4.5 step 3.
func passBraceExpansion(in []WideString, flags ExpandFlags) ([]WideString, error) {
	var out []WideString
	for _, s := range in {
		expanded, err := expandBraces(s, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandBraces(s WideString, flags ExpandFlags) ([]WideString, error) {
	begin := s.IndexSentinel(BracketBegin, 0)
	if begin < 0 {
		return []WideString{s}, nil
	}

	end := matchingBracketEnd(s, begin)
	if end < 0 {
		if flags.Has(ForCompletions) {
			repaired := s.Concat(WideString{Sen(BracketEnd)})
			return expandBraces(repaired, flags)
		}
		return nil, SyntaxError(begin, "unmatched {")
	}

	prefix := s[:begin]
	suffix := s[end+1:]
	alternatives := splitBracketSep(s[begin+1 : end])

	var results []WideString
	for _, alt := range alternatives {
		combined := prefix.Concat(alt, suffix)
		expanded, err := expandBraces(combined, flags)
		if err != nil {
			return nil, err
		}
		results = append(results, expanded...)
	}
	return results, nil
}

func matchingBracketEnd(s WideString, begin int) int {
	depth := 0
	for i := begin; i < len(s); i++ {
		if s[i].IsSentinel(BracketBegin) {
			depth++
		}
		if s[i].IsSentinel(BracketEnd) {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitBracketSep(s WideString) []WideString {
	var out []WideString
	depth := 0
	start := 0
	for i, a := range s {
		if a.IsSentinel(BracketBegin) {
			depth++
		}
		if a.IsSentinel(BracketEnd) {
			depth--
		}
		if a.IsSentinel(BracketSep) && depth == 0 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// passHomeAndPid implements spec §4.5 step 4.
func passHomeAndPid(in []WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, error) {
	var out []WideString
	for _, s := range in {
		s = expandHome(s, flags, ec)
		expanded, err := expandPid(s, flags, ec)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandHome(s WideString, flags ExpandFlags, ec *ExpandContext) WideString {
	if flags.Has(SkipHome) || len(s) == 0 {
		return s
	}

	if s[0].IsSentinel(HomeDirectory) {
		home, _ := ec.Variables.Get(context.Background(), "HOME")
		dir := home.Joined()
		if dir == "" {
			if u, ok := ec.Passwords.Lookup(currentLogin()); ok {
				dir = u.HomeDir
			}
		}
		return NewWideString(dir).Concat(s[1:])
	}

	if s[0].Class == AtomOrdinary && s[0].Char == '~' {
		end := 1
		for end < len(s) && s[end].Class == AtomOrdinary && s[end].Char != '/' {
			end++
		}
		login := s[1:end].PlainString()
		if end < len(s) && s[end].Class == AtomOrdinary && s[end].Char == '/' {
			if u, ok := ec.Passwords.Lookup(login); ok {
				return NewWideString(u.HomeDir).Concat(s[end:])
			}
		}
	}

	return s
}

func currentLogin() string {
	if v, ok := os.LookupEnv("USER"); ok {
		return v
	}
	return ""
}

func expandPid(s WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, error) {
	if len(s) == 0 || !s[0].IsSentinel(ProcessExpand) {
		return []WideString{s}, nil
	}
	if flags.Has(SkipJobs) {
		return []WideString{s}, nil
	}

	rest := s[1:].PlainString()
	switch {
	case rest == "self":
		return []WideString{NewWideString(strconv.Itoa(ec.PID))}, nil
	case rest == "last":
		if pid, ok := ec.Jobs.LastBackgroundPID(); ok {
			return []WideString{NewWideString(strconv.Itoa(pid))}, nil
		}
		return nil, nil
	default:
		if id, err := strconv.Atoi(rest); err == nil {
			if job, ok := ec.Jobs.JobByID(id); ok {
				return []WideString{NewWideString(strconv.Itoa(job.ProcessGroup))}, nil
			}
			return nil, nil
		}
		var matches []WideString
		for _, job := range ec.Jobs.Jobs() {
			if strings.HasPrefix(job.CommandText, rest) {
				matches = append(matches, NewWideString(strconv.Itoa(job.ProcessGroup)))
			}
		}
		return matches, nil
	}
}

// passWildcard implements spec §4.5 step 5.
func passWildcard(in []WideString, flags ExpandFlags, ec *ExpandContext) ([]WideString, ExpandStatus, error) {
	if flags.Has(SkipWildcards) {
		var out []WideString
		for _, s := range in {
			out = append(out, stripWildcardSentinels(s))
		}
		return out, ExpandOk, nil
	}

	status := ExpandOk
	var out []WideString
	for _, s := range in {
		segment, hasSlash, remainder := splitNextSlash(s)
		hadWildcard := hasWildcard(s)

		if !hadWildcard && !flags.Has(ForCompletions) {
			out = append(out, s)
			continue
		}

		baseDir := ec.BaseDir
		pattern := s
		if hasSlash && len(segment) == 0 {
			baseDir = "/"
			pattern = remainder
		} else if hasSlash && !hasWildcard(segment) {
			baseDir = joinPath(ec.BaseDir, segment.PlainString())
			pattern = remainder
		}

		matches, err := WildcardExpand(pattern, baseDir, WalkOptions{
			Flags:                     flags,
			FileStat:                  ec.FileStat,
			Canceller:                 ec.Canceller,
			CaseInsensitiveFilesystem: ec.Config.CaseInsensitiveFilesystem,
			Bounds:                    PathBounds{MaxPathLength: ec.Config.MaxPathLength, MaxPathDepth: ec.Config.MaxPathDepth},
		})
		if err != nil {
			return nil, ExpandOk, err
		}
		if len(matches) == 0 && hadWildcard {
			status = ExpandWildcardNoMatch
			continue
		}
		for _, m := range matches {
			out = append(out, NewWideString(m.Path))
		}
	}
	return out, status, nil
}

func stripWildcardSentinels(s WideString) WideString {
	out := make(WideString, 0, len(s))
	for _, a := range s {
		switch {
		case a.IsSentinel(AnyChar):
			out = append(out, Ch('?'))
		case a.IsSentinel(AnyString), a.IsSentinel(AnyStringRecursive):
			out = append(out, Ch('*'))
		case a.IsSentinel(InternalSeparator):
			continue
		default:
			out = append(out, a)
		}
	}
	return out
}
