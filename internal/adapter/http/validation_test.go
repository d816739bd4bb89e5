package http

import (
	"errors"
	"strings"
	"testing"
)

func TestHex32Validation(t *testing.T) {
	type P struct {
		LoanID string `validate:"hex32"`
	}
	cv := NewValidator()

	// valid: 32-char lowercase hex
	ok := P{LoanID: strings.Repeat("a", 32)}
	if err := cv.Validate(ok); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}

	// invalid samples
	for _, s := range []string{
		"",                                  // empty
		strings.Repeat("A", 32),             // uppercase
		"deadbeef",                          // too short
		strings.Repeat("g", 32),             // non-hex char
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",   // 31 chars
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x", // 33 with extra
	} {
		bad := P{LoanID: s}
		err := cv.Validate(bad)
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		fe := ToFieldErrors(err)
		found := false
		for _, e := range fe {
			if e.Field == "LoanID" && strings.Contains(e.Message, "32-char lowercase hex") {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected hex32 message for %q, got: %+v", s, fe)
		}
	}
}

func TestRateValidation(t *testing.T) {
	type P struct {
		Rate string `validate:"rate"`
	}
	cv := NewValidator()

	for _, v := range []string{"0", "0.12", "1", "0.000001", "0.5"} {
		if err := cv.Validate(P{Rate: v}); err != nil {
			t.Fatalf("expected rate OK for %q, got %v", v, err)
		}
	}
	for _, v := range []string{"", "abc", "-0.1", "1.01", "12", "0.0000001"} {
		err := cv.Validate(P{Rate: v})
		if err == nil {
			t.Fatalf("expected rate error for %q", v)
		}
		fe := ToFieldErrors(err)
		if !containsFieldMsg(fe, "Rate", "between 0 and 1") {
			t.Fatalf("expected rate message for %q, got %+v", v, fe)
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name   string `validate:"required"`
		Min    int    `validate:"gte=10"`
		Max    int    `validate:"lte=5"`
		Amount int64  `validate:"gt=0"`
	}
	cv := NewValidator()

	// Intentionally violate all
	err := cv.Validate(P{
		Name:   "", // required
		Min:    9,  // gte=10
		Max:    6,  // lte=5
		Amount: -1, // gt=0
	})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	// required
	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	// gte
	if !containsFieldMsg(fe, "Min", "greater than or equal to 10") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	// lte
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	// gt
	if !containsFieldMsg(fe, "Amount", "greater than 0") {
		t.Fatalf("missing gt message for Amount: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
