// Package audit answers ledger queries and checks stored state against the
// append-only ledger.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"
)

const pageSize = 100

type Usecase struct {
	loans   loan.Repository
	wallets wallet.Repository
	entries ledger.Repository
	log     *slog.Logger
	now     func() time.Time
}

func NewUsecase(loans loan.Repository, wallets wallet.Repository, entries ledger.Repository, log *slog.Logger) *Usecase {
	return &Usecase{loans: loans, wallets: wallets, entries: entries, log: log, now: time.Now}
}

func (u *Usecase) Entries(ctx context.Context, walletID string) ([]EntryDTO, error) {
	if strings.TrimSpace(walletID) == "" {
		return nil, apperr.Validation("wallet id is required")
	}
	rows, err := u.entries.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// LoanEntries lists fund entries and the wallet legs that carry the loan id.
func (u *Usecase) LoanEntries(ctx context.Context, loanID string) ([]EntryDTO, error) {
	if strings.TrimSpace(loanID) == "" {
		return nil, apperr.Validation("loan id is required")
	}
	if _, err := u.loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	rows, err := u.entries.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// ReconcileWallet replays the wallet's entries from zero. Every entry's
// recorded resulting balance must match the running total and the final total
// must match the stored balance.
func (u *Usecase) ReconcileWallet(ctx context.Context, walletID string) (*WalletReport, error) {
	w, err := u.wallets.GetByOwnerID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	rows, err := u.entries.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	rep := &WalletReport{WalletID: walletID, Balance: w.Balance, Entries: len(rows), CheckedAt: u.now().UTC()}
	for _, e := range rows {
		delta := e.Signed()
		if delta == 0 {
			rep.Issues = append(rep.Issues, fmt.Sprintf("entry %s: %s is not a wallet operation", e.EntryID, e.Operation))
			continue
		}
		rep.Replayed += delta
		if rep.Replayed < 0 {
			rep.Issues = append(rep.Issues, fmt.Sprintf("entry %s: balance goes negative (%d)", e.EntryID, rep.Replayed))
		}
		if e.ResultingAmount != rep.Replayed {
			rep.Issues = append(rep.Issues, fmt.Sprintf("entry %s: recorded %d, replayed %d", e.EntryID, e.ResultingAmount, rep.Replayed))
		}
	}
	if rep.Replayed != w.Balance {
		rep.Issues = append(rep.Issues, fmt.Sprintf("balance %d, ledger %d", w.Balance, rep.Replayed))
	}
	rep.Consistent = len(rep.Issues) == 0
	if !rep.Consistent {
		u.log.Warn("wallet out of balance", "wallet_id", walletID, "issues", rep.Issues)
	}
	return rep, nil
}

func (u *Usecase) ReconcileLoan(ctx context.Context, loanID string) (*LoanReport, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	rows, err := u.entries.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	rep := u.checkLoan(l, rows)
	if !rep.Consistent {
		u.log.Warn("loan out of balance", "loan_id", loanID, "issues", rep.Issues)
	}
	return rep, nil
}

func (u *Usecase) checkLoan(l *loan.Loan, rows []ledger.Entry) *LoanReport {
	rep := &LoanReport{
		LoanID:        l.LoanID,
		Status:        l.Status,
		FundingTarget: l.FundingTarget,
		FundedAmount:  l.FundedAmount,
		Invested:      l.InvestedTotal(),
		CheckedAt:     u.now().UTC(),
	}
	issue := func(format string, args ...any) { rep.Issues = append(rep.Issues, fmt.Sprintf(format, args...)) }

	legs := make(map[string]ledger.Entry, len(rows))
	for _, e := range rows {
		legs[e.IdempotencyKey] = e
	}
	for _, e := range rows {
		if e.Operation != ledger.OpFund {
			continue
		}
		rep.FundEntries += e.Amount
		if e.ResultingAmount != rep.FundEntries {
			issue("fund entry %s: recorded %d, running %d", e.EntryID, e.ResultingAmount, rep.FundEntries)
		}
		if d, ok := legs[ledger.DebitKey(e.IdempotencyKey)]; !ok || d.Amount != e.Amount {
			issue("fund entry %s: lender debit missing or different", e.EntryID)
		}
		if c, ok := legs[ledger.CreditKey(e.IdempotencyKey)]; !ok || c.Amount != e.Amount {
			issue("fund entry %s: borrower credit missing or different", e.EntryID)
		}
	}

	if rep.Invested != l.FundedAmount {
		issue("investments %d, funded amount %d", rep.Invested, l.FundedAmount)
	}
	if rep.FundEntries != l.FundedAmount {
		issue("fund entries %d, funded amount %d", rep.FundEntries, l.FundedAmount)
	}
	if l.FundedAmount > l.FundingTarget {
		issue("funded amount %d over target %d", l.FundedAmount, l.FundingTarget)
	}
	switch l.Status {
	case loan.StatusPending, loan.StatusRejected:
		if l.FundedAmount != 0 {
			issue("%s loan has funding %d", l.Status, l.FundedAmount)
		}
	case loan.StatusApproved:
		if l.FundedAmount >= l.FundingTarget {
			issue("approved loan reached its target")
		}
	case loan.StatusFunded, loan.StatusCompleted, loan.StatusDefaulted:
		if l.FundedAmount < l.FundingTarget {
			issue("%s loan below target", l.Status)
		}
	}
	rep.Consistent = len(rep.Issues) == 0
	return rep
}

// ReconcileAll checks every wallet and every loan, keeping only failures.
func (u *Usecase) ReconcileAll(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	owners, err := u.wallets.ListOwnerIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, owner := range owners {
		rep, err := u.ReconcileWallet(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", owner, err)
		}
		sum.WalletsChecked++
		if !rep.Consistent {
			sum.Wallets = append(sum.Wallets, *rep)
		}
	}

	var after uint64
	for {
		page, err := u.loans.List(ctx, after, pageSize)
		if err != nil {
			return nil, err
		}
		for i := range page {
			l := &page[i]
			rows, err := u.entries.ListByLoan(ctx, l.LoanID)
			if err != nil {
				return nil, fmt.Errorf("loan %s: %w", l.LoanID, err)
			}
			sum.LoansChecked++
			if rep := u.checkLoan(l, rows); !rep.Consistent {
				sum.Loans = append(sum.Loans, *rep)
			}
			after = l.ID
		}
		if len(page) < pageSize {
			break
		}
	}

	u.log.Info("reconciliation finished",
		"wallets", sum.WalletsChecked, "loans", sum.LoansChecked,
		"wallet_issues", len(sum.Wallets), "loan_issues", len(sum.Loans))
	return sum, nil
}
