package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidFormat, cause, "failed to read")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INVALID_FORMAT: failed to read: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeTopology, "vertex cannot be placed").
		WithDetail("vertex", 3).
		WithDetail("edges", 2)

	expected := "TOPOLOGY: vertex cannot be placed [edges=2 vertex=3]"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	wrapped := fmt.Errorf("build: %w", err)
	v, ok := Detail(wrapped, "vertex")
	if !ok || v != 3 {
		t.Errorf("Detail(vertex) = %v, %v, want 3, true", v, ok)
	}
	if _, ok := Detail(wrapped, "atom"); ok {
		t.Error("Detail(atom) should be missing")
	}
	if _, ok := Detail(errors.New("plain"), "vertex"); ok {
		t.Error("Detail on a plain error should be missing")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeTopology, "test"), ErrCodeTopology, true},
		{"different code", New(ErrCodeTopology, "test"), ErrCodeEmbedding, false},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrCodeEmbedding, "inner")), ErrCodeEmbedding, true},
		{"plain error", errors.New("plain"), ErrCodeTopology, false},
		{"nil", nil, ErrCodeTopology, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUnknownTopology, "x")); got != ErrCodeUnknownTopology {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUnknownTopology)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode() = %v, want empty", got)
	}
}

func TestGetCodeOr(t *testing.T) {
	if got := GetCodeOr(errors.New("plain"), ErrCodeInvalidFormat); got != ErrCodeInvalidFormat {
		t.Errorf("GetCodeOr() = %v, want %v", got, ErrCodeInvalidFormat)
	}
	if got := GetCodeOr(New(ErrCodeEmbedding, "x"), ErrCodeInvalidFormat); got != ErrCodeEmbedding {
		t.Errorf("GetCodeOr() = %v, want %v", got, ErrCodeEmbedding)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeTopology, "edge %d has 1 vertex", 4)); got != "edge 4 has 1 vertex" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}
