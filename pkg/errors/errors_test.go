package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeComponentNotFound, "component not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeComponentNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeComponentNotFound, err.Code)
	}
	if err.Message != "component not found" {
		t.Errorf("expected message 'component not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("connection refused")
	ctx := map[string]any{
		"category": "ram",
		"source":   "http",
	}

	err := WrapWithContext(ErrCodeCatalogUnavailable, "catalog fetch failed", cause, ctx)

	if err.Code != ErrCodeCatalogUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeCatalogUnavailable, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["category"] != "ram" {
		t.Errorf("expected category to be ram")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeStoreOperationFailed, "motherboard already present"),
			expected: "[STORE_OPERATION_FAILED] motherboard already present",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("select: %w", New(ErrCodeMalformedCascadeSelection, "value not offered"))

	if !errors.Is(err, New(ErrCodeMalformedCascadeSelection, "")) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(ErrCodeComponentNotFound, "")) {
		t.Error("expected errors.Is not to match a different code")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ErrCodeInternal},
		{"structured", New(ErrCodeNotFound, "x"), ErrCodeNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeCatalogUnavailable, "fetch failed")
	outer := Wrap(ErrCodeStoreOperationFailed, "import failed", inner)

	if !HasCode(outer, ErrCodeCatalogUnavailable) {
		t.Error("expected inner code to be found")
	}
	if !HasCode(outer, ErrCodeStoreOperationFailed) {
		t.Error("expected outer code to be found")
	}
	if HasCode(outer, ErrCodeTimeout) {
		t.Error("did not expect timeout code")
	}
	if HasCode(nil, ErrCodeInternal) {
		t.Error("nil error has no code")
	}
}
