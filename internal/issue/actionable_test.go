// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "read changelog"},
			expected: "failed to read changelog",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read changelog", Resource: "CHANGELOG.md"},
			expected: "failed to read changelog: CHANGELOG.md",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "publish plugin",
				Resource:  "https://plugins.jetbrains.com",
				Cause:     errors.New("401 Unauthorized"),
			},
			expected: "failed to publish plugin: https://plugins.jetbrains.com: 401 Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	err := NewErrorContext().
		WithOperation("write release record").
		WithResource("build/distributions").
		WithSuggestion("Check directory permissions").
		WithSuggestion("").
		Wrap(fmt.Errorf("open: %w", root)).
		Build()

	short := err.Format(false)
	if !strings.Contains(short, "\n  • Check directory permissions") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}
	if len(err.Suggestions) != 1 {
		t.Errorf("empty suggestion should be ignored, got %v", err.Suggestions)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. open: permission denied") || !strings.Contains(verbose, "2. permission denied") {
		t.Errorf("Format(true) missing chain:\n%s", verbose)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().Wrap(errors.New("x")).BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
}

func TestAsAndUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	wrapped := fmt.Errorf("outer: %w", WrapWithContext(sentinel, "sign plugin", "plugin.zip"))

	ae, ok := As(wrapped)
	if !ok {
		t.Fatal("As() did not find the ActionableError")
	}
	if ae.Operation != "sign plugin" {
		t.Errorf("Operation = %q", ae.Operation)
	}
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should reach the cause")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
}
