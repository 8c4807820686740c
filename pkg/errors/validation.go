package errors

import "regexp"

// branchNameRegex matches valid branch names: ASCII letters, digits,
// hyphen and underscore, at least one character. Slashes are deliberately
// excluded so branch names can never carry path-like structure.
var branchNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// maxBranchNameLength bounds branch names to keep them usable in UIs and keys.
const maxBranchNameLength = 100

// ValidateBranchName validates a branch name.
//
// The rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 100 characters
//   - Only ASCII letters, digits, '-' and '_'
func ValidateBranchName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidBranchName, "branch name cannot be empty")
	}

	if len(name) > maxBranchNameLength {
		return New(ErrCodeInvalidBranchName, "branch name too long (max %d characters)", maxBranchNameLength)
	}

	if !branchNameRegex.MatchString(name) {
		return New(ErrCodeInvalidBranchName, "branch name may only contain letters, digits, '-' and '_': %q", name)
	}

	return nil
}

// ValidateCommitMessage validates a commit message.
// Empty messages are allowed (the engine substitutes a default); the only
// hard limit is length, to protect store backends from unbounded documents.
func ValidateCommitMessage(message string) error {
	const maxMessageLength = 2000
	if len(message) > maxMessageLength {
		return New(ErrCodeInvalidCommit, "commit message too long (max %d characters)", maxMessageLength)
	}
	return nil
}
