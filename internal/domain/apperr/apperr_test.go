package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", ErrLockContention, CodeLockContention},
		{"validation", Validation("amount must be positive"), CodeValidation},
		{"wrapped", fmt.Errorf("fund: %w", ErrStorageFailure), CodeStorageFailure},
		{"custom", New("x_code", "x"), "x_code"},
		{"plain", errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("Code() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTransient(t *testing.T) {
	if !Transient(fmt.Errorf("commit: %w", ErrVersionConflict)) {
		t.Fatal("version conflict should be transient")
	}
	if Transient(Validation("bad")) {
		t.Fatal("validation must not be transient")
	}
	if !errors.Is(Validation("bad"), ErrValidation) {
		t.Fatal("Validation must wrap ErrValidation")
	}
}
