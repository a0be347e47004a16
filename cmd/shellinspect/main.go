// main.go: shellinspect command-line demo
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"context"
	"fmt"
	"os"

	flashflags "github.com/agilira/flash-flags"

	"github.com/agilira/shellexpand/pkg/shellexpand"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	var err error
	switch sub {
	case "expand":
		err = runExpand(args)
	case "escape":
		err = runEscape(args)
	case "unescape":
		err = runUnescape(args)
	case "glob":
		err = runGlob(args)
	case "complete":
		err = runComplete(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "shellinspect: unknown subcommand %q\n", sub)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "shellinspect: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `shellinspect: inspect the shellexpand string-processing core

Usage:
  shellinspect expand [--base-dir DIR] WORD...
  shellinspect escape [--no-quoted] [--no-tilde] WORD...
  shellinspect unescape [--incomplete] SURFACE...
  shellinspect glob [--base-dir DIR] PATTERN
  shellinspect complete LINE CURSOR`)
}

func runExpand(args []string) error {
	fs := flashflags.New("expand")
	fs.String("base-dir", ".", "directory wildcard expansion is rooted at")
	if err := fs.Parse(args); err != nil {
		return err
	}
	baseDir := fs.GetString("base-dir")

	sh := shellexpand.New().SetBaseDir(baseDir)
	ctx := context.Background()

	for _, word := range fs.Args() {
		w, ok := shellexpand.Unescape(word, shellexpand.UnescapeSpecial)
		if !ok {
			return fmt.Errorf("%q: unterminated quote or escape", word)
		}

		result, err := sh.Expand(ctx, w, 0)
		if err != nil {
			return fmt.Errorf("%q: %w", word, err)
		}
		if result.Status == shellexpand.ExpandWildcardNoMatch {
			fmt.Fprintf(os.Stderr, "shellinspect: %q: no matches\n", word)
			continue
		}
		for _, v := range result.Values {
			fmt.Println(shellexpand.Escape(v, shellexpand.EscapeAll).PlainString())
		}
	}
	return nil
}

func runEscape(args []string) error {
	fs := flashflags.New("escape")
	fs.Bool("no-quoted", false, "never wrap the whole output in quotes")
	fs.Bool("no-tilde", false, "leave ~ unescaped")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var flags shellexpand.EscapeFlags
	if fs.GetBool("no-quoted") {
		flags |= shellexpand.EscapeNoQuoted
	}
	if fs.GetBool("no-tilde") {
		flags |= shellexpand.EscapeNoTilde
	}

	for _, word := range fs.Args() {
		w := shellexpand.NewWideString(word)
		fmt.Println(shellexpand.Escape(w, flags).PlainString())
	}
	return nil
}

func runUnescape(args []string) error {
	fs := flashflags.New("unescape")
	fs.Bool("incomplete", false, "tolerate a trailing backslash or unterminated quote")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var flags shellexpand.UnescapeFlags
	if fs.GetBool("incomplete") {
		flags |= shellexpand.UnescapeIncomplete
	}

	for _, surface := range fs.Args() {
		w, ok := shellexpand.Unescape(surface, flags)
		if !ok {
			fmt.Fprintf(os.Stderr, "shellinspect: %q: unterminated quote or escape\n", surface)
			continue
		}
		fmt.Println(w.PlainString())
	}
	return nil
}

func runGlob(args []string) error {
	fs := flashflags.New("glob")
	fs.String("base-dir", ".", "directory to walk from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) != 1 {
		return fmt.Errorf("glob takes exactly one pattern")
	}
	baseDir := fs.GetString("base-dir")

	sh := shellexpand.New().SetBaseDir(baseDir)
	pattern, ok := shellexpand.Unescape(fs.Args()[0], shellexpand.UnescapeSpecial)
	if !ok {
		return fmt.Errorf("%q: unterminated quote or escape", fs.Args()[0])
	}
	matches, err := sh.WildcardExpand(pattern, baseDir, 0)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Println(m.Path)
	}
	return nil
}

func runComplete(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("complete takes exactly LINE and CURSOR")
	}
	line := args[0]
	var cursor int
	if _, err := fmt.Sscanf(args[1], "%d", &cursor); err != nil {
		return fmt.Errorf("invalid cursor offset %q: %w", args[1], err)
	}

	sh := shellexpand.New().
		SetPATH(splitPath(os.Getenv("PATH"))).
		SetBuiltins([]string{"cd", "complete", "echo", "exit", "set"})

	for _, r := range sh.Complete(context.Background(), line, cursor) {
		if r.Description != "" {
			fmt.Printf("%s\t%s\n", r.Completion, r.Description)
		} else {
			fmt.Println(r.Completion)
		}
	}
	return nil
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == ':' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	return out
}
