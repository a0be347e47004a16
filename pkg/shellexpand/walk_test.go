// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"os"
	"path/filepath"
	"testing"
)

func mustMkTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"main.go", "help.go", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "nested.go"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func globPattern(s string) WideString {
	var out WideString
	for _, r := range s {
		if r == '*' {
			out = append(out, Sen(AnyString))
			continue
		}
		out = append(out, Ch(r))
	}
	return out
}

func TestWildcardExpandFlatGlob(t *testing.T) {
	dir := mustMkTree(t)
	matches, err := WildcardExpand(globPattern("*.go"), dir, WalkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}
}

func TestWildcardExpandHidesDotfiles(t *testing.T) {
	dir := mustMkTree(t)
	matches, err := WildcardExpand(globPattern("*"), dir, WalkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if filepath.Base(m.Path) == ".hidden" {
			t.Error("leading wildcard should not match a dotfile")
		}
	}
}

func TestWildcardExpandNestedSegment(t *testing.T) {
	dir := mustMkTree(t)
	pattern := append(NewWideString("sub/"), globPattern("*.go")...)
	matches, err := WildcardExpand(pattern, dir, WalkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || filepath.Base(matches[0].Path) != "nested.go" {
		t.Fatalf("expected nested.go, got %+v", matches)
	}
}

func TestWildcardExpandRejectsPathTooLong(t *testing.T) {
	dir := mustMkTree(t)
	_, err := WildcardExpand(globPattern("*.go"), dir, WalkOptions{
		Bounds: PathBounds{MaxPathLength: 1, MaxPathDepth: 50},
	})
	if err == nil {
		t.Fatal("expected a path-too-long error")
	}
	se, ok := err.(*ShellError)
	if !ok || !se.IsSyntax() {
		t.Fatalf("expected a syntax ShellError, got %v (%T)", err, err)
	}
}

func TestWildcardExpandRejectsPathTooDeep(t *testing.T) {
	dir := mustMkTree(t)
	pattern := append(NewWideString("sub/"), globPattern("*.go")...)
	_, err := WildcardExpand(pattern, dir, WalkOptions{
		Bounds: PathBounds{MaxPathLength: 4096, MaxPathDepth: 0 - 1},
	})
	if err == nil {
		t.Fatal("expected a path-too-deep error")
	}
}

func TestWildcardExpandCompletionDescriptions(t *testing.T) {
	dir := mustMkTree(t)
	matches, err := WildcardExpand(globPattern("*.go"), dir, WalkOptions{Flags: ForCompletions})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Record.Description == "" {
			t.Errorf("completion match %+v missing description", m)
		}
	}
}
