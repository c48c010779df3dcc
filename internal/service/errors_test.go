package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mmynk/groupexpenses/internal/storage"
)

func TestErrorExtensions(t *testing.T) {
	ext := NonUniqueName("Trip").Extensions()
	if ext["code"] != "NAME_NOT_UNIQUE" {
		t.Errorf("extensions = %v, want code NAME_NOT_UNIQUE", ext)
	}
}

func TestErrorIsMatchesCode(t *testing.T) {
	if !errors.Is(NonUniqueName("a"), NonUniqueName("b")) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(ErrGroupNotFound, ErrPersonNotFound) {
		t.Error("errors with different codes should not match")
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := fmt.Errorf("query failed: %w", storage.ErrUnavailable)
	err := Internal(cause)
	if err.Error() != internalMessage {
		t.Errorf("message = %q, want %q", err.Error(), internalMessage)
	}
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Error("cause should remain reachable through Unwrap")
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("AsError(nil) should be nil")
	}
	if got := AsError(ErrInvalidID); got != ErrInvalidID {
		t.Errorf("AsError should pass client errors through, got %v", got)
	}
	if got := AsError(errors.New("boom")); got.Code != CodeInternal {
		t.Errorf("code = %s, want %s", got.Code, CodeInternal)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		value string
		tag   string
		valid bool
	}{
		{"plain email", "a@b.com", "looseemail", true},
		{"email without dot", "a@bcom", "looseemail", false},
		{"email with space", "a @b.com", "looseemail", false},
		{"one grapheme", "\u00e9", "graphemes=1:1", true},
		{"combining sequence is one grapheme", "e\u0301", "graphemes=1:1", true},
		{"empty name", "", nameRule, false},
		{"bad param", "abc", "graphemes=3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if (err == nil) != tt.valid {
				t.Errorf("Var(%q, %q) = %v, want valid=%v", tt.value, tt.tag, err, tt.valid)
			}
		})
	}
}
