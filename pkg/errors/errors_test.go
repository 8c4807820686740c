package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidBranchName, "invalid branch name: %s", "feat/1")

	if err.Code != ErrCodeInvalidBranchName {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidBranchName)
	}
	if err.Message != "invalid branch name: feat/1" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeInternal, cause, "load commit %s", "abc")

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	want := "INTERNAL_ERROR: load commit abc: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"Match", New(ErrCodeNoChanges, "nothing to commit"), ErrCodeNoChanges, true},
		{"Mismatch", New(ErrCodeNoChanges, "nothing to commit"), ErrCodeBranchExists, false},
		{"WrappedMatch", fmt.Errorf("outer: %w", New(ErrCodeProtectedBranch, "main is protected")), ErrCodeProtectedBranch, true},
		{"PlainError", errors.New("plain"), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeBranchExists, "taken")); got != ErrCodeBranchExists {
		t.Errorf("GetCode = %v, want %v", got, ErrCodeBranchExists)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeNoChanges, "nothing to commit")); got != "nothing to commit" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Simple", "main", false},
		{"WithDigits", "release2024", false},
		{"WithHyphen", "feature-x", false},
		{"WithUnderscore", "hot_fix", false},
		{"Empty", "", true},
		{"Slash", "feat/1", true},
		{"Space", "my branch", true},
		{"Dot", "v1.2", true},
		{"Unicode", "brånch", true},
		{"TooLong", string(make([]byte, 101)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBranchName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidBranchName) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidBranchName)
			}
		})
	}
}
