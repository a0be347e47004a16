// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"testing"
)

// fakeLogger records Trace/Info calls for assertions without pulling in
// a real logging backend.
type fakeLogger struct {
	traces []string
	infos  []string
}

func (f *fakeLogger) Trace(_ context.Context, msg string, _ ...Field) { f.traces = append(f.traces, msg) }
func (f *fakeLogger) Debug(_ context.Context, msg string, _ ...Field) {}
func (f *fakeLogger) Info(_ context.Context, msg string, _ ...Field)  { f.infos = append(f.infos, msg) }
func (f *fakeLogger) Warn(_ context.Context, msg string, _ ...Field)  {}
func (f *fakeLogger) Error(_ context.Context, msg string, _ ...Field) {}
func (f *fakeLogger) WithFields(_ ...Field) Logger                    { return f }

func mustUnescapeSpecial(t *testing.T, s string) WideString {
	t.Helper()
	w, ok := Unescape(s, UnescapeSpecial)
	if !ok {
		t.Fatalf("Unescape(%q, special) failed", s)
	}
	return w
}

func plainStrings(vs []WideString) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.PlainString()
	}
	return out
}

func TestExpandLiteralPassesThrough(t *testing.T) {
	ec := &ExpandContext{}
	res, err := Expand(context.Background(), NewWideString("hello"), 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got := plainStrings(res.Values); len(got) != 1 || got[0] != "hello" {
		t.Errorf("Expand(hello) = %v, want [hello]", got)
	}
	if res.Status != ExpandOk {
		t.Errorf("status = %v, want ExpandOk", res.Status)
	}
}

func TestExpandVariableFanOut(t *testing.T) {
	store := newMapVariableStore()
	store.Set(context.Background(), "FOO", "local", VariableValue{IsArray: true, Array: []string{"a", "b"}})
	ec := &ExpandContext{Variables: store}

	input := mustUnescapeSpecial(t, "$FOO")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got := plainStrings(res.Values)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expand($FOO) = %v, want [a b]", got)
	}
}

func TestExpandVariableUnsetDropsElement(t *testing.T) {
	ec := &ExpandContext{Variables: newMapVariableStore()}
	input := mustUnescapeSpecial(t, "$NOSUCHVARIABLEATALL")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Values) != 0 {
		t.Errorf("expected unset bare variable to vanish, got %v", plainStrings(res.Values))
	}
}

func TestExpandVariableUnsetElidesWholeArgumentWithSurroundingText(t *testing.T) {
	ec := &ExpandContext{Variables: newMapVariableStore()}
	input := mustUnescapeSpecial(t, "a$UNSETb")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Values) != 0 {
		t.Errorf("expected an unset variable to elide the whole argument even with surrounding literal text, got %v", plainStrings(res.Values))
	}
}

func TestExpandBraceExpansion(t *testing.T) {
	ec := &ExpandContext{}
	input := mustUnescapeSpecial(t, "a{b,c,d}e")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got := plainStrings(res.Values)
	want := []string{"abe", "ace", "ade"}
	if len(got) != len(want) {
		t.Fatalf("Expand(a{b,c,d}e) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandHomeDirectory(t *testing.T) {
	store := newMapVariableStore()
	store.Set(context.Background(), "HOME", "local", VariableValue{Scalar: "/home/tester"})
	ec := &ExpandContext{Variables: store}

	input := mustUnescapeSpecial(t, "~/docs")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got := plainStrings(res.Values); len(got) != 1 || got[0] != "/home/tester/docs" {
		t.Errorf("Expand(~/docs) = %v, want [/home/tester/docs]", got)
	}
}

func TestExpandSelfPid(t *testing.T) {
	ec := &ExpandContext{PID: 4242}
	input := mustUnescapeSpecial(t, "%self")
	res, err := Expand(context.Background(), input, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got := plainStrings(res.Values); len(got) != 1 || got[0] != "4242" {
		t.Errorf("Expand(%%self) = %v, want [4242]", got)
	}
}

func TestExpandRejectsOversizedArgument(t *testing.T) {
	ec := &ExpandContext{Config: ShellConfig{MaxPathLength: 4096, MaxPathDepth: 50, MaxArgLength: 4}}
	_, err := Expand(context.Background(), NewWideString("toolong"), 0, ec)
	if err == nil {
		t.Fatal("expected an error for input exceeding MaxArgLength")
	}
	se, ok := err.(*ShellError)
	if !ok || se.ErrorCode() != ErrCodeArgTooLong {
		t.Errorf("expected ErrCodeArgTooLong, got %v", err)
	}
}

func TestExpandOneRequiresSingleResult(t *testing.T) {
	ec := &ExpandContext{}
	input := mustUnescapeSpecial(t, "a{b,c}")
	if _, err := ExpandOne(context.Background(), input, 0, ec); err == nil {
		t.Fatal("expected ExpandOne to fail on multiple results")
	}

	single, err := ExpandOne(context.Background(), NewWideString("solo"), 0, ec)
	if err != nil {
		t.Fatalf("ExpandOne: %v", err)
	}
	if single.PlainString() != "solo" {
		t.Errorf("ExpandOne(solo) = %q, want solo", single.PlainString())
	}
}

func TestExpandSkipCmdSubstForbidsSubshell(t *testing.T) {
	ec := &ExpandContext{}
	input := mustUnescapeSpecial(t, "(echo hi)")
	if _, err := Expand(context.Background(), input, SkipCmdSubst, ec); err == nil {
		t.Fatal("expected SkipCmdSubst to reject a command substitution")
	}
}

func TestExpandLogsPassEntryAndExit(t *testing.T) {
	logger := &fakeLogger{}
	ec := &ExpandContext{Logger: logger}
	if _, err := Expand(context.Background(), NewWideString("literal"), 0, ec); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	want := []string{
		"expand.pass.cmdsubst.enter", "expand.pass.cmdsubst.exit",
		"expand.pass.variables.enter", "expand.pass.variables.exit",
		"expand.pass.braces.enter", "expand.pass.braces.exit",
		"expand.pass.home_and_pid.enter", "expand.pass.home_and_pid.exit",
		"expand.pass.wildcard.enter", "expand.pass.wildcard.exit",
	}
	if len(logger.traces) != len(want) {
		t.Fatalf("traces = %v, want %v", logger.traces, want)
	}
	for i, msg := range want {
		if logger.traces[i] != msg {
			t.Errorf("traces[%d] = %q, want %q", i, logger.traces[i], msg)
		}
	}
}

func TestExpandLogsWildcardNoMatchAtInfoLevel(t *testing.T) {
	dir := mustMkTree(t)
	logger := &fakeLogger{}
	ec := &ExpandContext{Logger: logger, BaseDir: dir}

	pattern := globPattern("*.nosuchextension")
	res, err := Expand(context.Background(), pattern, 0, ec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if res.Status != ExpandWildcardNoMatch {
		t.Fatalf("Status = %v, want ExpandWildcardNoMatch", res.Status)
	}

	found := false
	for _, msg := range logger.infos {
		if msg == "expand.wildcard_no_match" {
			found = true
		}
	}
	if !found {
		t.Errorf("infos = %v, want to contain expand.wildcard_no_match", logger.infos)
	}
}

func TestExpandLogsCancellationAtInfoLevel(t *testing.T) {
	dir := mustMkTree(t)
	logger := &fakeLogger{}
	cancelled := cancelFunc(func() bool { return true })
	ec := &ExpandContext{Logger: logger, BaseDir: dir, Canceller: cancelled}

	pattern := globPattern("*.go")
	if _, err := Expand(context.Background(), pattern, 0, ec); err == nil {
		t.Fatal("expected a cancelled Canceller to fail Expand")
	}

	found := false
	for _, msg := range logger.infos {
		if msg == "expand.cancelled" {
			found = true
		}
	}
	if !found {
		t.Errorf("infos = %v, want to contain expand.cancelled", logger.infos)
	}
}
