// registry.go: the option registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ResultMode is an option entry's result-mode (spec §3.4).
type ResultMode int

const (
	ResultShared ResultMode = iota
	ResultNoFiles
	ResultNoCommon
	ResultExclusive
)

// OptionEntry is one registered completion option (spec §3.4).
type OptionEntry struct {
	Short          rune // 0 if none
	Long           string
	OldStyle       bool
	ArgumentScript string
	Description    string
	Condition      string
	Result         ResultMode
	Flags          CompletionFlags
	// RequiresArgument mirrors the "append : to the short-option
	// string" rule of spec §4.7's add().
	RequiresArgument bool
}

// ruleKey identifies a CompletionRule (spec §3.4: keyed by
// (command_name, command_is_path)).
type ruleKey struct {
	name   string
	isPath bool
}

// CompletionRule is the per-command registered metadata of spec §3.4.
type CompletionRule struct {
	ShortOptions  string
	Entries       []OptionEntry
	Authoritative bool
}

// Registry is the mutable option-rule mapping of spec §4.7, with a
// mutex-guarded map and a loader tracked by load-time, mirroring the
// teacher's PluginManager registry/load-timestamp shape (its .so
// dynamic-plugin loading is not adapted here — see DESIGN.md).
type Registry struct {
	mu    sync.RWMutex
	rules map[ruleKey]*CompletionRule

	loadedAt  map[string]time.Time
	loadedMtime map[string]time.Time
	loadDir   string
	evaluator Evaluator
}

// NewRegistry creates an empty Registry. loadDir is the per-command-
// completions directory the loader consults for "name.fish" files
// (spec §4.7); it may be empty, in which case loading is a no-op.
func NewRegistry(loadDir string, evaluator Evaluator) *Registry {
	return &Registry{
		rules:       make(map[ruleKey]*CompletionRule),
		loadedAt:    make(map[string]time.Time),
		loadedMtime: make(map[string]time.Time),
		loadDir:     loadDir,
		evaluator:   evaluator,
	}
}

// Add appends an option entry to the rule for (cmd, isPath), creating
// the rule if needed, and updates the short-option string (spec §4.7).
func (r *Registry) Add(cmd string, isPath bool, e OptionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ruleKey{cmd, isPath}
	rule, ok := r.rules[key]
	if !ok {
		rule = &CompletionRule{}
		r.rules[key] = rule
	}
	rule.Entries = append(rule.Entries, e)
	if e.Short != 0 {
		rule.ShortOptions += string(e.Short)
		if e.RequiresArgument {
			rule.ShortOptions += ":"
		}
	}
}

// SetAuthoritative sets the authoritative flag, creating an empty rule
// if none exists (spec §4.7).
func (r *Registry) SetAuthoritative(cmd string, isPath, authoritative bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ruleKey{cmd, isPath}
	rule, ok := r.rules[key]
	if !ok {
		rule = &CompletionRule{}
		r.rules[key] = rule
	}
	rule.Authoritative = authoritative
}

// Remove drops option entries matching short/long. If both are zero
// (short == 0 and long == ""), every entry is dropped. If the rule
// becomes empty, the rule itself is dropped (spec §4.7).
func (r *Registry) Remove(cmd string, isPath bool, short rune, long string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ruleKey{cmd, isPath}
	rule, ok := r.rules[key]
	if !ok {
		return
	}

	dropAll := short == 0 && long == ""
	var kept []OptionEntry
	var removedShorts []rune
	for _, e := range rule.Entries {
		match := dropAll || (short != 0 && e.Short == short) || (long != "" && e.Long == long)
		if match {
			if e.Short != 0 {
				removedShorts = append(removedShorts, e.Short)
			}
			continue
		}
		kept = append(kept, e)
	}
	rule.Entries = kept
	for _, s := range removedShorts {
		rule.ShortOptions = strings.ReplaceAll(rule.ShortOptions, string(s)+":", "")
		rule.ShortOptions = strings.ReplaceAll(rule.ShortOptions, string(s), "")
	}

	if len(rule.Entries) == 0 {
		delete(r.rules, key)
	}
}

// Lookup returns the rule for (cmd, isPath), first running the loader
// (see ensureLoaded), or an empty rule if none exists.
func (r *Registry) Lookup(cmd string, isPath bool) CompletionRule {
	r.ensureLoaded(cmd)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if rule, ok := r.rules[ruleKey{cmd, isPath}]; ok {
		return *rule
	}
	return CompletionRule{}
}

// ensureLoaded loads "<name>.fish" from the registry's load directory
// the first time name is queried, and reloads it if its mtime has
// advanced since the last load (spec §4.7's loader). Loaded state is
// kept for the Registry's lifetime; it is not reset between runs.
func (r *Registry) ensureLoaded(name string) {
	if r.loadDir == "" || r.evaluator == nil {
		return
	}

	path := filepath.Join(r.loadDir, name+".fish")
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	r.mu.Lock()
	last, seen := r.loadedMtime[path]
	if seen && !info.ModTime().After(last) {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	source, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if _, err := r.evaluator.EvalSubshell(context.Background(), string(source)); err != nil {
		return
	}

	r.mu.Lock()
	r.loadedAt[path] = time.Now()
	r.loadedMtime[path] = info.ModTime()
	r.mu.Unlock()
}

// Describe emits a re-parseable textual form of every rule, one
// `complete` command line per option entry plus one `--authoritative`
// line per authoritative rule, for the `complete --print`
// built-in (spec §4.7, grounded on the original's complete_print()).
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]ruleKey, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return !keys[i].isPath && keys[j].isPath
	})

	var b strings.Builder
	for _, k := range keys {
		rule := r.rules[k]
		target := "--command"
		if k.isPath {
			target = "--path"
		}
		for _, e := range rule.Entries {
			fmt.Fprintf(&b, "complete %s %s", target, k.name)
			if e.Short != 0 {
				fmt.Fprintf(&b, " --short-option %c", e.Short)
			}
			if e.Long != "" {
				if e.OldStyle {
					fmt.Fprintf(&b, " --old-option %s", e.Long)
				} else {
					fmt.Fprintf(&b, " --long-option %s", e.Long)
				}
			}
			switch e.Result {
			case ResultNoFiles:
				b.WriteString(" --no-files")
			case ResultExclusive:
				b.WriteString(" --exclusive")
			}
			if e.ArgumentScript != "" {
				fmt.Fprintf(&b, " --arguments %q", e.ArgumentScript)
			}
			if e.Condition != "" {
				fmt.Fprintf(&b, " --condition %q", e.Condition)
			}
			if e.Description != "" {
				fmt.Fprintf(&b, " --description %q", e.Description)
			}
			b.WriteByte('\n')
		}
		if rule.Authoritative {
			fmt.Fprintf(&b, "complete %s %s --authoritative\n", target, k.name)
		}
	}
	return b.String()
}
