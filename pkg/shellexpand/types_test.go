// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import "testing"

func TestExpandFlagsHas(t *testing.T) {
	f := SkipCmdSubst | ForCompletions
	if !f.Has(SkipCmdSubst) {
		t.Error("expected SkipCmdSubst set")
	}
	if !f.Has(ForCompletions) {
		t.Error("expected ForCompletions set")
	}
	if f.Has(SkipWildcards) {
		t.Error("did not expect SkipWildcards set")
	}
	if !f.Has(SkipCmdSubst | ForCompletions) {
		t.Error("expected the combined mask to be set")
	}
	if f.Has(SkipCmdSubst | SkipWildcards) {
		t.Error("Has must require every requested bit")
	}
}

func TestCompletionFlagsHas(t *testing.T) {
	f := NoSpace | DontEscape
	if !f.Has(NoSpace) || !f.Has(DontEscape) {
		t.Error("expected both flags set")
	}
	if f.Has(AutoSpace) {
		t.Error("did not expect AutoSpace set")
	}
}

func TestExpandStatusZeroValueIsOk(t *testing.T) {
	var s ExpandStatus
	if s != ExpandOk {
		t.Errorf("zero value of ExpandStatus should be ExpandOk, got %v", s)
	}
}
