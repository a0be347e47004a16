// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package shellexpand

import (
	"testing"
	"time"
)

func TestDefaultShellConfig(t *testing.T) {
	c := DefaultShellConfig()
	if c.MaxPathLength != 4096 {
		t.Errorf("MaxPathLength = %d, want 4096", c.MaxPathLength)
	}
	if c.MaxPathDepth != 50 {
		t.Errorf("MaxPathDepth = %d, want 50", c.MaxPathDepth)
	}
	if c.MaxArgLength != 1<<20 {
		t.Errorf("MaxArgLength = %d, want %d", c.MaxArgLength, 1<<20)
	}
	if c.UserCompletionDeadline != 200*time.Millisecond {
		t.Errorf("UserCompletionDeadline = %v, want 200ms", c.UserCompletionDeadline)
	}
	if c.CaseInsensitiveFilesystem {
		t.Error("expected CaseInsensitiveFilesystem to default false")
	}
}

func TestShellConfigOverride(t *testing.T) {
	c := DefaultShellConfig()
	c.MaxArgLength = 128
	c.CaseInsensitiveFilesystem = true
	if c.MaxArgLength != 128 || !c.CaseInsensitiveFilesystem {
		t.Errorf("expected overrides to stick, got %+v", c)
	}
}
