// Package shellexpand implements the string-processing core of a
// POSIX-ish interactive shell: an escape/unescape codec for the
// quoting rules of spec §4.2, a five-pass expansion pipeline (command
// substitution, variable expansion, brace expansion, home/pid
// expansion, wildcard expansion), a recursive wildcard matcher and
// filesystem walker, and a tab-completion resolver backed by a
// pluggable per-command option registry.
//
// Key Features:
//   - Escape/Unescape round-trip through the shell's three quoting modes
//   - An ordered, short-circuiting expansion pipeline over []WideString
//   - A case-sensitive (optionally case-insensitive) wildcard walker
//     with cycle detection and fuzzy-completion ranking
//   - A context-scoped option registry for per-command completion rules
//
// Basic Usage:
//
//	sh := shellexpand.New().SetVariableStore(myVars)
//	input, _ := shellexpand.Unescape("$HOME/*.txt", shellexpand.UnescapeSpecial)
//	result, err := sh.Expand(ctx, input, 0)
//
// See cmd/shellinspect for a command-line demo of each operation.
package shellexpand
