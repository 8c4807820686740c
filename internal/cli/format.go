package cli

import (
	"fmt"
	"time"

	"github.com/branchline/branchline/pkg/errors"
)

// friendlyError turns coded engine errors into short user-facing text.
func friendlyError(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeNoChanges:
		return "Nothing to commit, the graph matches the branch head"
	case errors.ErrCodeConcurrentModification:
		return "The branch head moved while you were working, re-run the command"
	case errors.ErrCodeProtectedBranch:
		return "The branch is protected, merge into it instead"
	case errors.ErrCodeNonFastForward:
		return "The target commit is not a descendant of the current head"
	case errors.ErrCodeUnrelatedHistories:
		return "The branches share no common ancestor"
	default:
		return errors.UserMessage(err)
	}
}

func versionLabel(version int) string {
	return fmt.Sprintf("v%d", version)
}

// relativeTime formats t relative to now ("3h ago", "2d ago").
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
