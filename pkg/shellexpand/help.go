// help.go: human-readable rendering of registered completion rules
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"fmt"
	"sort"
	"strings"
)

// HelpGenerator renders a Shell's registered option rules as
// human-readable text, the same string-builder section-assembly style
// the teacher's HelpGenerator uses for command/flag help, retargeted
// from command trees to option rules.
type HelpGenerator struct {
	shell *Shell
}

// NewHelpGenerator creates a help generator bound to sh.
func NewHelpGenerator(sh *Shell) *HelpGenerator {
	return &HelpGenerator{shell: sh}
}

// GenerateCommandHelp renders every registered option for cmd as a
// short usage summary, one line per entry, sorted by long name then
// short letter.
func (h *HelpGenerator) GenerateCommandHelp(cmd string, isPath bool) string {
	var sb strings.Builder
	rule := h.shell.registry.Lookup(cmd, isPath)

	h.addUsage(&sb, cmd, rule)
	h.addOptions(&sb, rule)
	return sb.String()
}

func (h *HelpGenerator) addUsage(sb *strings.Builder, cmd string, rule CompletionRule) {
	fmt.Fprintf(sb, "Usage: %s [options]\n\n", cmd)
	if rule.Authoritative {
		sb.WriteString("This command's option list is authoritative: unrecognized options are errors.\n\n")
	}
}

func (h *HelpGenerator) addOptions(sb *strings.Builder, rule CompletionRule) {
	entries := append([]OptionEntry(nil), rule.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Long != entries[j].Long {
			return entries[i].Long < entries[j].Long
		}
		return entries[i].Short < entries[j].Short
	})

	if len(entries) == 0 {
		sb.WriteString("(no registered options)\n")
		return
	}

	for _, e := range entries {
		sb.WriteString("  ")
		wrote := false
		if e.Short != 0 {
			fmt.Fprintf(sb, "-%c", e.Short)
			wrote = true
		}
		if e.Long != "" {
			if wrote {
				sb.WriteString(", ")
			}
			if e.OldStyle {
				fmt.Fprintf(sb, "-%s", e.Long)
			} else {
				fmt.Fprintf(sb, "--%s", e.Long)
			}
		}
		if e.Description != "" {
			fmt.Fprintf(sb, "\t%s", e.Description)
		}
		sb.WriteByte('\n')
	}
}

// PrintRegistry renders every registered rule as re-parseable
// `complete` command lines, used by the `complete --print` built-in
// (spec §4.7, delegating to Registry.Describe).
func (h *HelpGenerator) PrintRegistry() string {
	return h.shell.registry.Describe()
}
