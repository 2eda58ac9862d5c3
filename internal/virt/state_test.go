package virt

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainStateFromCode(t *testing.T) {
	tests := []struct {
		code int32
		want DomainState
		str  string
	}{
		{0, NoState, "No State"},
		{1, Running, "Running"},
		{2, Blocked, "Blocked"},
		{3, Paused, "Paused"},
		{4, Shutdown, "Shutdown"},
		{5, Shutoff, "Shutoff"},
		{6, Crashed, "Crashed"},
		{7, PMSuspended, "Suspended Power Management"},
		{8, Unknown, "Unknown"},
		{255, Unknown, "Unknown"},
		{-1, Unknown, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code %d", tt.code), func(t *testing.T) {
			got := DomainStateFromCode(tt.code)
			if got != tt.want {
				t.Errorf("DomainStateFromCode(%d) = %v, want %v", tt.code, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

func TestOpError(t *testing.T) {
	cause := errors.New("virDomainCreate returned -1")
	err := opError(ErrLifecycle, cause, "start domain %s", "vm-a")

	if got, want := err.Error(), "failed to start domain vm-a: lifecycle operation failed: virDomainCreate returned -1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrLifecycle) || !errors.Is(err, cause) {
		t.Error("errors.Is must match both kind and cause")
	}
	if errors.Is(err, ErrQuery) {
		t.Error("errors.Is matched the wrong kind")
	}

	nf := NotFoundError("vm-x")
	if got, want := nf.Error(), "failed to look up domain vm-x: domain not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(nf, ErrNotFound) {
		t.Error("NotFoundError must match ErrNotFound")
	}
}
