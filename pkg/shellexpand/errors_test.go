// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"strings"
	"testing"
)

func TestShellErrorOffsetFormatting(t *testing.T) {
	err := SyntaxError(7, "unmatched {")
	if !strings.HasPrefix(err.Error(), "at offset 7:") {
		t.Errorf("Error() = %q, want a leading offset prefix", err.Error())
	}

	noOffset := MultipleResultsError()
	if strings.HasPrefix(noOffset.Error(), "at offset") {
		t.Errorf("Error() = %q, expected no offset prefix for offset -1", noOffset.Error())
	}
}

func TestShellErrorCodeAndPredicates(t *testing.T) {
	syn := SyntaxError(0, "bad")
	if !syn.IsSyntax() || syn.IsCancelled() {
		t.Errorf("expected IsSyntax true and IsCancelled false, got %+v", syn)
	}
	if syn.ErrorCode() != ErrCodeSyntax {
		t.Errorf("ErrorCode() = %v, want ErrCodeSyntax", syn.ErrorCode())
	}

	cancelled := CancelledError()
	if !cancelled.IsCancelled() || cancelled.IsSyntax() {
		t.Errorf("expected IsCancelled true and IsSyntax false, got %+v", cancelled)
	}
}

func TestCmdSubstFailedErrorWrapsInner(t *testing.T) {
	inner := errString("boom")
	err := CmdSubstFailedError(3, inner)
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected the inner error's message to be embedded, got %q", err.Error())
	}
}

func TestArgTooLongError(t *testing.T) {
	err := argTooLongError(100, 10)
	if err.ErrorCode() != ErrCodeArgTooLong {
		t.Errorf("ErrorCode() = %v, want ErrCodeArgTooLong", err.ErrorCode())
	}
	if !strings.Contains(err.Error(), "100") || !strings.Contains(err.Error(), "10") {
		t.Errorf("expected both lengths in the message, got %q", err.Error())
	}
}

func TestShellErrorWithUserMessageChains(t *testing.T) {
	err := NewShellError(ErrCodeSyntax, -1, "internal").WithUserMessage("friendly").WithContext("key", "value")
	if err.ErrorCode() != ErrCodeSyntax {
		t.Errorf("expected chaining to return the same error, got code %v", err.ErrorCode())
	}
}

type errString string

func (e errString) Error() string { return string(e) }
