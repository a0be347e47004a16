// condition_cache.go: per-run precondition-script memoization
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

// conditionResult is one memoized precondition outcome (spec §3.5).
type conditionResult struct {
	tested bool
	result bool
}

// conditionCache is a per-completion-run memoization of option
// preconditions, modeled as a map owned by one call tree rather than
// a process-wide hash that must be cleared by convention: the cache's
// lifetime is the resolver call's lifetime, so "no stale entries
// across runs" is a property of construction, not a runtime check
// (spec §9's own redesign note).
type conditionCache struct {
	results map[string]conditionResult
}

// newConditionCache creates an empty cache for a single completion run.
func newConditionCache() *conditionCache {
	return &conditionCache{results: make(map[string]conditionResult)}
}

// evaluate runs script through eval if it hasn't been seen yet this
// run, memoizing the outcome. An empty script is always truthy.
func (c *conditionCache) evaluate(script string, eval func(string) bool) bool {
	if script == "" {
		return true
	}
	if r, ok := c.results[script]; ok {
		return r.result
	}
	result := eval(script)
	c.results[script] = conditionResult{tested: true, result: result}
	return result
}
