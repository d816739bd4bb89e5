package gormdb

import (
	"context"
	"errors"
	"testing"
	"time"

	ledgerDomain "p2p-lending/internal/domain/ledger"

	"github.com/google/uuid"
)

func entry(key string, op ledgerDomain.Operation, wallet, loanID string, amount int64) *ledgerDomain.Entry {
	return &ledgerDomain.Entry{
		EntryID:        uuid.NewString(),
		IdempotencyKey: key,
		Operation:      op,
		WalletID:       wallet,
		LoanID:         loanID,
		Amount:         amount,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestLedger_AppendIsUniquePerKey(t *testing.T) {
	db := openTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	if err := repo.Append(ctx, entry("dep-1", ledgerDomain.OpDeposit, "w1", "", 100)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := repo.Append(ctx, entry("dep-1", ledgerDomain.OpDeposit, "w1", "", 100))
	if !errors.Is(err, ledgerDomain.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}

	got, err := repo.GetByIdempotencyKey(ctx, "dep-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 100 || got.Operation != ledgerDomain.OpDeposit {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if _, err := repo.GetByIdempotencyKey(ctx, "nope"); !errors.Is(err, ledgerDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger_ListByWalletAndLoan(t *testing.T) {
	db := openTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	rows := []*ledgerDomain.Entry{
		entry("a", ledgerDomain.OpDeposit, "w1", "", 100),
		entry("b:debit", ledgerDomain.OpDebit, "w1", "L1", 40),
		entry("b:credit", ledgerDomain.OpCredit, "w2", "L1", 40),
		entry("b", ledgerDomain.OpFund, "", "L1", 40),
	}
	for _, e := range rows {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	w1, err := repo.ListByWallet(ctx, "w1")
	if err != nil {
		t.Fatal(err)
	}
	if len(w1) != 2 || w1[0].IdempotencyKey != "a" || w1[1].Signed() != -40 {
		t.Fatalf("unexpected wallet entries: %+v", w1)
	}
	l1, err := repo.ListByLoan(ctx, "L1")
	if err != nil {
		t.Fatal(err)
	}
	if len(l1) != 3 {
		t.Fatalf("expected 3 loan entries, got %d", len(l1))
	}
}
