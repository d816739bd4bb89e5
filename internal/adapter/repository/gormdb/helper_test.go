package gormdb

import (
	"context"
	"testing"
	"time"

	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/infrastructure/db"
	"p2p-lending/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// openTestDB opens an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func makeLoan(loanID, borrowerID string) *loan.Loan {
	return &loan.Loan{
		LoanID:          loanID,
		BorrowerID:      borrowerID,
		RequestedAmount: 1_000_000,
		FundingTarget:   1_000_000,
		Rate:            decimal.RequireFromString("0.12"),
		TermMonths:      12,
		Status:          loan.StatusPending,
		StatusUpdatedAt: time.Now().UTC(),
	}
}

func makeApprovedLoan(t *testing.T, repo *LoanRepository, target int64) *loan.Loan {
	t.Helper()
	l := makeLoan(id.NewID32(), id.NewID32())
	l.FundingTarget = target
	l.Status = loan.StatusApproved
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}
