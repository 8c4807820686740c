package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/branchline/branchline/pkg/errors"
)

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no changes", errors.New(errors.ErrCodeNoChanges, "graph unchanged"), "Nothing to commit"},
		{"concurrent", errors.New(errors.ErrCodeConcurrentModification, "head moved"), "re-run"},
		{"protected", errors.New(errors.ErrCodeProtectedBranch, "branch main is protected"), "protected"},
		{"non fast forward", errors.New(errors.ErrCodeNonFastForward, "cannot move head"), "descendant"},
		{"unrelated", errors.New(errors.ErrCodeUnrelatedHistories, "no common ancestor"), "common ancestor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := friendlyError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("friendlyError() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q, want %q", got, "01234567")
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q, want %q", got, "abc")
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "just now"},
		{"minutes", 5 * time.Minute, "5m ago"},
		{"hours", 3 * time.Hour, "3h ago"},
		{"days", 49 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(time.Now().Add(-tt.ago)); got != tt.want {
				t.Errorf("relativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}
