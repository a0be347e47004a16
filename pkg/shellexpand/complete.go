// complete.go: the completion resolver
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"sort"
	"strings"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// CompletionRequest bundles a full command line, a cursor offset, and
// the collaborators the resolver consults (spec §4.6).
type CompletionRequest struct {
	Line      string
	Cursor    int
	Variables VariableStore
	Passwords PasswordDatabase
	PATH      []string
	CDPATH    []string
	Functions []string
	Builtins  []string
	Registry  *Registry
	FileStat  FileStat
	Canceller Canceller
	Evaluator Evaluator
	Config    ShellConfig

	// Logger, AuditLogger and Tracer are optional observability
	// collaborators (spec §6's ambient stack). A nil value for any of
	// them is a valid no-op.
	Logger      Logger
	AuditLogger AuditLogger
	Tracer      Tracer
}

func (r *CompletionRequest) fill() {
	if r.Variables == nil {
		r.Variables = newMapVariableStore()
	}
	if r.Passwords == nil {
		r.Passwords = newOSPasswordDatabase()
	}
	if r.FileStat == nil {
		r.FileStat = osFileStat{}
	}
	if r.Canceller == nil {
		r.Canceller = NeverCancelled
	}
	if r.Registry == nil {
		r.Registry = NewRegistry("", r.Evaluator)
	}
	if r.Config.UserCompletionDeadline == 0 {
		r.Config = DefaultShellConfig()
	}
}

// Complete runs the resolver of spec §4.6 and returns a sorted
// completion list. Errors during completion are never surfaced to the
// caller as a message — per spec §7's user-visible-behavior rule, a
// failed completion silently yields an empty list.
func Complete(ctx context.Context, req CompletionRequest) []CompletionRecord {
	req.fill()

	if req.Tracer != nil {
		var span Span
		ctx, span = req.Tracer.StartSpan(ctx, "shellexpand.Complete")
		defer span.End()
	}
	if req.AuditLogger != nil {
		req.AuditLogger.LogCommand(ctx, req.Line, nil, "")
	}

	if req.Canceller.IsCancelled() {
		if req.Logger != nil {
			req.Logger.Info(ctx, "complete.cancelled")
		}
		return nil
	}

	innerStart, innerEnd := innermostSubshell(req.Line, req.Cursor)
	slice := req.Line[innerStart:innerEnd]
	cursorInSlice := req.Cursor - innerStart

	cmd, prevTok, tokenStart, inCommandPosition := classifyCursor(slice, cursorInSlice)
	typed := slice[tokenStart:cursorInSlice]

	cache := newConditionCache()
	defer func() { _ = cache }() // cleared by falling out of scope (spec §3.5)

	var records []CompletionRecord
	switch {
	case strings.HasPrefix(typed, "$"):
		done := traceDispatch(req, ctx, "complete.dispatch.variable")
		records = completeVariable(ctx, req, typed[1:])
		done()
	case strings.HasPrefix(typed, "~") && !strings.Contains(typed, "/"):
		done := traceDispatch(req, ctx, "complete.dispatch.user")
		records = completeUser(req, typed[1:], req.Config.UserCompletionDeadline)
		done()
	case inCommandPosition:
		done := traceDispatch(req, ctx, "complete.dispatch.command")
		records = completeCommand(req, typed)
		done()
	default:
		done := traceDispatch(req, ctx, "complete.dispatch.argument")
		records = completeArgument(ctx, req, cmd, prevTok, typed, cache)
		done()
	}

	sortCompletionRecords(records)
	return records
}

// traceDispatch logs entry/exit of a completion dispatch branch at
// Trace level, the same pass-boundary logging pattern Expand uses
// (spec §6). A nil Logger makes both a no-op.
func traceDispatch(req CompletionRequest, ctx context.Context, name string) func() {
	if req.Logger == nil {
		return func() {}
	}
	req.Logger.Trace(ctx, name+".enter")
	return func() { req.Logger.Trace(ctx, name+".exit") }
}

// innermostSubshell finds the innermost "(" ")" span containing the
// cursor (spec §4.6 step 1); if none, the whole line is returned.
func innermostSubshell(line string, cursor int) (int, int) {
	depth := 0
	start := 0
	bestStart, bestEnd := 0, len(line)
	for i, c := range line {
		switch c {
		case '(':
			depth++
			if depth == 1 {
				start = i + 1
			}
		case ')':
			if depth == 1 && i >= cursor {
				return bestStart, bestEnd
			}
			depth--
			if depth == 0 && start <= cursor && cursor <= i {
				bestStart, bestEnd = start, i
			}
		}
	}
	if depth > 0 && start <= cursor {
		return start, len(line)
	}
	return bestStart, bestEnd
}

// classifyCursor tokenizes slice and reports the current command name,
// the previous token's text, the byte offset the cursor's token began
// at, and whether the cursor is still in command position (spec §4.6
// step 2).
func classifyCursor(slice string, cursor int) (cmd, prevTok string, tokenStart int, commandPosition bool) {
	tz := NewTokenizer()
	tz.SetInput(slice)

	var jobCommand string
	var prev Token
	var current Token
	haveCurrent := false

	for {
		tok, ok := tz.NextToken()
		if !ok {
			break
		}
		if tok.Type == TokenPipe || tok.Type == TokenEnd || tok.Type == TokenBackground {
			jobCommand = ""
		}
		if tok.Offset > cursor {
			break
		}
		if tok.Type == TokenString && jobCommand == "" {
			jobCommand = tok.Text
		}
		if tok.Offset <= cursor {
			prev = current
			current = tok
			haveCurrent = true
		}
	}

	tokenStart = cursor
	if haveCurrent && current.Offset <= cursor && cursor <= current.Offset+current.Length {
		tokenStart = current.Offset
	}

	commandPosition = jobCommand == "" || (haveCurrent && current.Text == jobCommand && current.Offset == strings.Index(slice, jobCommand))
	return jobCommand, prev.Text, tokenStart, commandPosition
}

func completeVariable(ctx context.Context, req CompletionRequest, typed string) []CompletionRecord {
	var out []CompletionRecord
	for _, name := range req.Variables.Names(ctx) {
		if !strings.HasPrefix(name, typed) {
			continue
		}
		value, _ := req.Variables.Get(ctx, name)
		out = append(out, CompletionRecord{
			Completion:  name[len(typed):],
			Description: "Variable: " + value.Joined(),
			Rank:        MatchRank{Type: MatchPrefix},
		})
	}
	return out
}

func completeUser(req CompletionRequest, typed string, softDeadline time.Duration) []CompletionRecord {
	deadline := timecache.Now().Add(softDeadline)
	var out []CompletionRecord
	for _, entry := range req.Passwords.All() {
		if timecache.Now().After(deadline) {
			break
		}
		if !strings.HasPrefix(entry.Login, typed) {
			continue
		}
		out = append(out, CompletionRecord{
			Completion: entry.Login[len(typed):],
			Rank:       MatchRank{Type: MatchPrefix},
		})
	}
	return out
}

func completeCommand(req CompletionRequest, typed string) []CompletionRecord {
	var out []CompletionRecord
	for _, name := range req.Functions {
		if strings.HasPrefix(name, typed) {
			out = append(out, CompletionRecord{Completion: name[len(typed):], Description: "Function", Rank: MatchRank{Type: MatchPrefix}})
		}
	}
	for _, name := range req.Builtins {
		if strings.HasPrefix(name, typed) {
			out = append(out, CompletionRecord{Completion: name[len(typed):], Description: "Builtin", Rank: MatchRank{Type: MatchPrefix}})
		}
	}

	pattern := globPatternFor(typed)
	for _, dir := range req.PATH {
		matches, err := WildcardExpand(pattern, dir, WalkOptions{
			Flags:     ForCompletions | ExecutablesOnly,
			FileStat:  req.FileStat,
			Canceller: req.Canceller,
			Typed:     typed,
		})
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, m.Record)
		}
	}
	return out
}

func completeArgument(ctx context.Context, req CompletionRequest, cmd, prevTok, typed string, cache *conditionCache) []CompletionRecord {
	rule := req.Registry.Lookup(cmd, strings.Contains(cmd, "/"))

	eval := func(script string) bool {
		if req.Evaluator == nil {
			return true
		}
		_, err := req.Evaluator.EvalSubshell(ctx, script)
		return err == nil
	}

	var out []CompletionRecord
	for _, e := range rule.Entries {
		if !cache.evaluate(e.Condition, eval) {
			continue
		}
		if matchesOption(e, prevTok, typed, &out) {
			continue
		}
	}

	if !rule.Authoritative || len(out) == 0 {
		matches, err := WildcardExpand(globPatternFor(typed), ".", WalkOptions{
			Flags:     ForCompletions,
			FileStat:  req.FileStat,
			Canceller: req.Canceller,
			Typed:     typed,
		})
		if err == nil {
			for _, m := range matches {
				out = append(out, m.Record)
			}
		}
	}

	return out
}

func matchesOption(e OptionEntry, prevTok, typed string, out *[]CompletionRecord) bool {
	longForm := "--" + e.Long
	if e.OldStyle {
		longForm = "-" + e.Long
	}

	switch {
	case e.Long != "" && strings.HasPrefix(typed, longForm):
		return true
	case e.Long != "" && typed == "" && prevTok == longForm:
		if e.ArgumentScript != "" {
			*out = append(*out, CompletionRecord{Completion: e.ArgumentScript, Description: e.Description})
		}
		return true
	case e.Long != "" && strings.HasPrefix(longForm, typed) && typed != "":
		*out = append(*out, CompletionRecord{
			Completion:  longForm[len(typed):],
			Description: e.Description,
			Rank:        MatchRank{Type: MatchPrefix},
		})
		return true
	case e.Short != 0 && typed == "-"+string(e.Short):
		return true
	}
	return false
}

func globPatternFor(typed string) WideString {
	return NewWideString(typed).Concat(WideString{Sen(AnyString)})
}

// sortCompletionRecords orders records by match_rank ascending with a
// deterministic tie-break on completion text (spec §4.6/§8).
func sortCompletionRecords(records []CompletionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i].Rank, records[j].Rank
		if ri != rj {
			return ri.Less(rj)
		}
		return records[i].Completion < records[j].Completion
	})
}
