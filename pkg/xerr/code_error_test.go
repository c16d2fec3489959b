package xerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructorsAndPredicates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		check    func(error) bool
		wrongOne func(error) bool
	}{
		{"not found", NewNotFound("index %s not found", "idx_1"), NotFound, IsNotFound, IsBackend},
		{"unsupported", NewUnsupported("unknown kind %q", "hnsw"), Unsupported, IsUnsupported, IsNotFound},
		{"validation", NewValidation("empty set"), BadRequest, IsValidation, IsTimeout},
		{"backend", NewBackend("sqlite: %v", errors.New("locked")), InternalServerError, IsBackend, IsValidation},
		{"timeout", NewTimeout("milvus connect"), Timeout, IsTimeout, IsUnsupported},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ce *CodeError
			if !errors.As(tc.err, &ce) {
				t.Fatalf("%T is not a *CodeError", tc.err)
			}
			if ce.Code != tc.code {
				t.Errorf("code = %d, want %d", ce.Code, tc.code)
			}
			if !tc.check(tc.err) {
				t.Error("predicate rejected its own constructor")
			}
			if tc.wrongOne(tc.err) {
				t.Error("wrong predicate accepted the error")
			}
		})
	}
}

func TestPredicatesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading descriptor: %w", NewNotFound("index idx_2 not found"))
	if !IsNotFound(err) {
		t.Error("IsNotFound failed through fmt.Errorf wrapping")
	}
	if IsBackend(err) {
		t.Error("IsBackend matched a wrapped not-found")
	}
}

func TestPredicatesOnForeignErrors(t *testing.T) {
	plain := errors.New("plain failure")
	for name, pred := range map[string]func(error) bool{
		"IsNotFound":    IsNotFound,
		"IsUnsupported": IsUnsupported,
		"IsValidation":  IsValidation,
		"IsBackend":     IsBackend,
		"IsTimeout":     IsTimeout,
	} {
		if pred(plain) {
			t.Errorf("%s matched a plain error", name)
		}
		if pred(nil) {
			t.Errorf("%s matched nil", name)
		}
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := NewNotFound("embedding set %s not found", "emb_9")
	want := "Code: 404, Message: embedding set emb_9 not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
