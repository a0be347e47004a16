// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"testing"
)

func TestShellEscapeUnescapeDelegation(t *testing.T) {
	sh := New()
	surface := sh.Escape(NewWideString("a b"), EscapeAll).PlainString()
	got, ok := sh.Unescape(surface, 0)
	if !ok || got.PlainString() != "a b" {
		t.Fatalf("Escape/Unescape round trip failed: surface=%q got=%q ok=%v", surface, got.PlainString(), ok)
	}
}

func TestShellExpandUsesConfiguredCollaborators(t *testing.T) {
	store := newMapVariableStore()
	store.Set(context.Background(), "GREETING", "local", VariableValue{Scalar: "hi"})

	sh := New().SetVariableStore(store).SetPID(99)
	input, ok := sh.Unescape("$GREETING", UnescapeSpecial)
	if !ok {
		t.Fatal("Unescape failed")
	}

	res, err := sh.Expand(context.Background(), input, 0)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.Values) != 1 || res.Values[0].PlainString() != "hi" {
		t.Errorf("Expand($GREETING) = %v, want [hi]", res.Values)
	}
}

func TestShellExpandOneMultipleResultsError(t *testing.T) {
	sh := New()
	input, ok := sh.Unescape("a{b,c}", UnescapeSpecial)
	if !ok {
		t.Fatal("Unescape failed")
	}
	if _, err := sh.ExpandOne(context.Background(), input, 0); err == nil {
		t.Fatal("expected ExpandOne to reject multiple results")
	}
}

func TestShellWildcardMatch(t *testing.T) {
	sh := New()
	text := NewWideString("hello.go")
	pattern, ok := sh.Unescape("*.go", UnescapeSpecial)
	if !ok {
		t.Fatal("Unescape failed")
	}
	if !sh.WildcardMatch(text, pattern) {
		t.Error("expected *.go to match hello.go")
	}
}

func TestShellRegistryAccessor(t *testing.T) {
	sh := New()
	sh.Registry().Add("ls", false, OptionEntry{Long: "all"})
	rule := sh.Registry().Lookup("ls", false)
	if len(rule.Entries) != 1 || rule.Entries[0].Long != "all" {
		t.Errorf("expected Registry() to expose mutations, got %+v", rule)
	}
}

func TestShellSetEvaluatorPropagatesToRegistry(t *testing.T) {
	sh := New()
	eval := nullEvaluator{}
	sh.SetEvaluator(eval)
	if sh.registry.evaluator == nil {
		t.Error("expected SetEvaluator to update the registry's evaluator")
	}
}

func TestShellLoggerDefaultsNil(t *testing.T) {
	sh := New()
	if sh.Logger() != nil {
		t.Error("expected a fresh Shell to have no logger configured")
	}
}
