// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"os"
	"testing"
)

func TestVariableValueJoinedAndElements(t *testing.T) {
	scalar := VariableValue{Scalar: "hi"}
	if scalar.Joined() != "hi" {
		t.Errorf("scalar Joined() = %q", scalar.Joined())
	}
	if got := scalar.Elements(); len(got) != 1 || got[0] != "hi" {
		t.Errorf("scalar Elements() = %v", got)
	}

	arr := VariableValue{IsArray: true, Array: []string{"a", "b", "c"}}
	if arr.Joined() != "a b c" {
		t.Errorf("array Joined() = %q", arr.Joined())
	}
	if got := arr.Elements(); len(got) != 3 {
		t.Errorf("array Elements() = %v", got)
	}
}

func TestMapVariableStoreSeededFromEnviron(t *testing.T) {
	t.Setenv("SHELLEXPAND_TEST_VAR", "test-value")
	s := newMapVariableStore()
	ctx := context.Background()

	v, ok := s.Get(ctx, "SHELLEXPAND_TEST_VAR")
	if !ok || v.Scalar != "test-value" {
		t.Fatalf("expected seeded env var, got %+v ok=%v", v, ok)
	}

	if _, ok := s.Get(ctx, "NO_SUCH_VARIABLE_HERE"); ok {
		t.Error("expected unset variable to report ok=false")
	}

	if err := s.Set(ctx, "NEWVAR", "local", VariableValue{Scalar: "x"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok = s.Get(ctx, "NEWVAR")
	if !ok || v.Scalar != "x" {
		t.Fatalf("expected NEWVAR=x after Set, got %+v ok=%v", v, ok)
	}

	names := s.Names(ctx)
	found := false
	for _, n := range names {
		if n == "NEWVAR" {
			found = true
		}
	}
	if !found {
		t.Error("expected Names() to include NEWVAR")
	}
}

func TestNullEvaluatorAlwaysFails(t *testing.T) {
	_, err := (nullEvaluator{}).EvalSubshell(context.Background(), "echo hi")
	if err == nil {
		t.Fatal("expected nullEvaluator to fail")
	}
	se, ok := err.(*ShellError)
	if !ok || se.ErrorCode() != ErrCodeCmdSubstForbidden {
		t.Errorf("expected CmdSubstForbidden error, got %v", err)
	}
}

func TestEmptyJobTable(t *testing.T) {
	jt := emptyJobTable{}
	if jt.Jobs() != nil {
		t.Error("expected no jobs")
	}
	if _, ok := jt.JobByID(1); ok {
		t.Error("expected JobByID to report not found")
	}
	if _, ok := jt.LastBackgroundPID(); ok {
		t.Error("expected no background pid")
	}
}

func TestNeverCancelled(t *testing.T) {
	if NeverCancelled.IsCancelled() {
		t.Error("NeverCancelled must never report cancelled")
	}
}

func TestOSFileStatAccessExecutable(t *testing.T) {
	dir := t.TempDir()
	execPath := dir + "/script"
	if err := os.WriteFile(execPath, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	plainPath := dir + "/data"
	if err := os.WriteFile(plainPath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := osFileStat{}
	if !fs.AccessExecutable(execPath) {
		t.Error("expected script to be executable")
	}
	if fs.AccessExecutable(plainPath) {
		t.Error("expected data file to not be executable")
	}
	if fs.AccessExecutable(dir + "/does-not-exist") {
		t.Error("expected missing path to not be executable")
	}
}

func TestOSPasswordDatabaseCachesLookups(t *testing.T) {
	d := newOSPasswordDatabase()
	if _, ok := d.Lookup("no-such-user-really"); ok {
		t.Error("expected lookup of a nonexistent user to fail")
	}
	if len(d.All()) != 0 {
		t.Error("expected no cached entries after a failed lookup")
	}
}
