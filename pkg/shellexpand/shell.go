// Package shellexpand implements the string-processing core of a
// POSIX-ish shell: an escape/unescape codec, a five-pass expansion
// pipeline, a wildcard matcher and filesystem walker, and a
// tab-completion resolver with a pluggable option registry.
//
// Basic usage:
//
//	sh := shellexpand.New().
//		SetVariableStore(myVars).
//		SetEvaluator(mySubshellRunner)
//
//	input, _ := shellexpand.Unescape("$HOME/*.txt", shellexpand.UnescapeSpecial)
//	result, err := sh.Expand(ctx, input, 0)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package shellexpand

import "context"

// Shell is the top-level entry point wiring the collaborators of
// spec §6 into the Escape/Unescape/Expand/Complete surface, following
// the teacher's App fluent-builder shape (a single struct holding
// optional collaborators plus sub-components, configured via chained
// SetX methods before use).
type Shell struct {
	config    ShellConfig
	variables VariableStore
	eval      Evaluator
	jobs      JobTable
	fileStat  FileStat
	canceller Canceller
	passwords PasswordDatabase
	registry  *Registry

	logger           Logger
	auditLogger      AuditLogger
	tracer           Tracer
	metricsCollector MetricsCollector

	pid     int
	baseDir string

	path      []string
	cdpath    []string
	functions []string
	builtins  []string
}

// New creates a Shell with default in-process collaborators.
func New() *Shell {
	sh := &Shell{
		config:   DefaultShellConfig(),
		fileStat: osFileStat{},
		baseDir:  ".",
	}
	sh.registry = NewRegistry("", sh.eval)
	return sh
}

// SetConfig replaces the shell's bounds/feature configuration.
func (sh *Shell) SetConfig(c ShellConfig) *Shell { sh.config = c; return sh }

// SetVariableStore sets the environment-store collaborator.
func (sh *Shell) SetVariableStore(v VariableStore) *Shell { sh.variables = v; return sh }

// SetEvaluator sets the command-substitution evaluator.
func (sh *Shell) SetEvaluator(e Evaluator) *Shell {
	sh.eval = e
	if sh.registry != nil {
		sh.registry.evaluator = e
	}
	return sh
}

// SetJobTable sets the job-table collaborator.
func (sh *Shell) SetJobTable(j JobTable) *Shell { sh.jobs = j; return sh }

// SetFileStat sets the file-metadata collaborator.
func (sh *Shell) SetFileStat(f FileStat) *Shell { sh.fileStat = f; return sh }

// SetCanceller sets the cancellation-signal collaborator.
func (sh *Shell) SetCanceller(c Canceller) *Shell { sh.canceller = c; return sh }

// SetPasswordDatabase sets the password-database collaborator used by
// tilde expansion and user completion.
func (sh *Shell) SetPasswordDatabase(p PasswordDatabase) *Shell { sh.passwords = p; return sh }

// SetRegistryLoadDir sets the per-command-completions directory the
// option registry's loader consults for "name.fish" files.
func (sh *Shell) SetRegistryLoadDir(dir string) *Shell {
	sh.registry = NewRegistry(dir, sh.eval)
	return sh
}

// SetLogger sets the structured logger.
func (sh *Shell) SetLogger(l Logger) *Shell { sh.logger = l; return sh }

// SetAuditLogger sets the audit logger.
func (sh *Shell) SetAuditLogger(a AuditLogger) *Shell { sh.auditLogger = a; return sh }

// SetTracer sets the tracer.
func (sh *Shell) SetTracer(t Tracer) *Shell { sh.tracer = t; return sh }

// SetMetricsCollector sets the metrics collector.
func (sh *Shell) SetMetricsCollector(m MetricsCollector) *Shell { sh.metricsCollector = m; return sh }

// SetPID sets the pid reported by %self (spec §4.5).
func (sh *Shell) SetPID(pid int) *Shell { sh.pid = pid; return sh }

// SetBaseDir sets the working directory wildcard expansion is rooted at.
func (sh *Shell) SetBaseDir(dir string) *Shell { sh.baseDir = dir; return sh }

// SetPATH sets the directories searched for command completion.
func (sh *Shell) SetPATH(dirs []string) *Shell { sh.path = dirs; return sh }

// SetCDPATH sets the directories searched by "cd"-style completion.
func (sh *Shell) SetCDPATH(dirs []string) *Shell { sh.cdpath = dirs; return sh }

// SetFunctions sets the known function names for command completion.
func (sh *Shell) SetFunctions(names []string) *Shell { sh.functions = names; return sh }

// SetBuiltins sets the known builtin names for command completion.
func (sh *Shell) SetBuiltins(names []string) *Shell { sh.builtins = names; return sh }

// Registry returns the option registry for direct mutation via
// Add/SetAuthoritative/Remove (spec §4.7).
func (sh *Shell) Registry() *Registry { return sh.registry }

// Logger returns the configured logger, or nil.
func (sh *Shell) Logger() Logger { return sh.logger }

func (sh *Shell) expandContext() *ExpandContext {
	return &ExpandContext{
		Variables:        sh.variables,
		Eval:             sh.eval,
		Jobs:             sh.jobs,
		FileStat:         sh.fileStat,
		Canceller:        sh.canceller,
		Passwords:        sh.passwords,
		BaseDir:          sh.baseDir,
		PID:              sh.pid,
		Config:           sh.config,
		Logger:           sh.logger,
		AuditLogger:      sh.auditLogger,
		Tracer:           sh.tracer,
		MetricsCollector: sh.metricsCollector,
	}
}

// Expand runs the full expansion pipeline (spec §4.5).
func (sh *Shell) Expand(ctx context.Context, input WideString, flags ExpandFlags) (ExpandResult, error) {
	return Expand(ctx, input, flags, sh.expandContext())
}

// ExpandOne runs Expand and requires exactly one result.
func (sh *Shell) ExpandOne(ctx context.Context, input WideString, flags ExpandFlags) (WideString, error) {
	return ExpandOne(ctx, input, flags, sh.expandContext())
}

// Escape renders an internal literal as surface form (spec §4.2).
func (sh *Shell) Escape(w WideString, flags EscapeFlags) WideString { return Escape(w, flags) }

// Unescape parses surface form into internal form (spec §4.2).
func (sh *Shell) Unescape(s string, flags UnescapeFlags) (WideString, bool) { return Unescape(s, flags) }

// WildcardMatch implements the exact matcher (spec §4.3).
func (sh *Shell) WildcardMatch(text, pattern WideString) bool { return Match(text, pattern, true) }

// WildcardExpand runs the filesystem walker (spec §4.4).
func (sh *Shell) WildcardExpand(pattern WideString, baseDir string, flags ExpandFlags) ([]WalkMatch, error) {
	return WildcardExpand(pattern, baseDir, WalkOptions{
		Flags:                     flags,
		FileStat:                  sh.fileStat,
		Canceller:                 sh.canceller,
		CaseInsensitiveFilesystem: sh.config.CaseInsensitiveFilesystem,
		Bounds:                    PathBounds{MaxPathLength: sh.config.MaxPathLength, MaxPathDepth: sh.config.MaxPathDepth},
	})
}

// Complete runs the completion resolver (spec §4.6).
func (sh *Shell) Complete(ctx context.Context, line string, cursor int) []CompletionRecord {
	return Complete(ctx, CompletionRequest{
		Line:        line,
		Cursor:      cursor,
		Variables:   sh.variables,
		Passwords:   sh.passwords,
		PATH:        sh.path,
		CDPATH:      sh.cdpath,
		Functions:   sh.functions,
		Builtins:    sh.builtins,
		Registry:    sh.registry,
		FileStat:    sh.fileStat,
		Canceller:   sh.canceller,
		Evaluator:   sh.eval,
		Config:      sh.config,
		Logger:      sh.logger,
		AuditLogger: sh.auditLogger,
		Tracer:      sh.tracer,
	})
}
