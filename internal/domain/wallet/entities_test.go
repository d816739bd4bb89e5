package wallet

import (
	"errors"
	"testing"

	"p2p-lending/internal/domain/apperr"
)

func TestDebitCredit(t *testing.T) {
	w := &Wallet{OwnerID: "u", Balance: 100}

	if err := w.Debit(150); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraw = %v", err)
	}
	if w.Balance != 100 {
		t.Fatalf("failed debit changed balance: %d", w.Balance)
	}
	if err := w.Debit(100); err != nil || w.Balance != 0 {
		t.Fatalf("exact debit: err=%v balance=%d", err, w.Balance)
	}
	if err := w.Credit(0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero credit = %v", err)
	}
	if err := w.Debit(-1); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("negative debit = %v", err)
	}
	if err := w.Credit(25); err != nil || w.Balance != 25 {
		t.Fatalf("credit: err=%v balance=%d", err, w.Balance)
	}

	cp := w.Clone()
	cp.Balance = 1
	if w.Balance != 25 {
		t.Fatal("Clone shares state")
	}
	if apperr.Code(ErrInsufficientFunds) != apperr.CodeInsufficientFunds {
		t.Fatal("unexpected code")
	}
}
