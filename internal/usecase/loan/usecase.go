package loan

import (
	"context"
	"errors"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/lock"
	"p2p-lending/pkg/id"

	"github.com/shopspring/decimal"
)

const maxTermMonths = 360

type Usecase struct {
	repo   loan.Repository
	locker lock.Locker
}

func NewUsecase(r loan.Repository, locker lock.Locker) *Usecase {
	return &Usecase{repo: r, locker: locker}
}

// Submit opens a pending loan. A borrower holds at most one pending loan.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*LoanDTO, error) {
	switch {
	case in.BorrowerID == "":
		return nil, apperr.Validation("borrower id is required")
	case in.Amount <= 0:
		return nil, apperr.Validation("amount must be positive")
	case in.Rate.IsNegative() || in.Rate.GreaterThan(decimal.NewFromInt(1)):
		return nil, apperr.Validation("rate must be between 0 and 1")
	case in.TermMonths < 1 || in.TermMonths > maxTermMonths:
		return nil, apperr.Validation("term_months must be between 1 and %d", maxTermMonths)
	}

	release, err := u.locker.Acquire(ctx, lock.BorrowerKey(in.BorrowerID))
	if err != nil {
		return nil, err
	}
	defer release()

	// Block if the borrower already has a pending loan.
	_, err = u.repo.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, loan.ErrPendingExists
	case !errors.Is(err, loan.ErrNotFound):
		return nil, err
	}

	l := &loan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		RequestedAmount: in.Amount,
		FundingTarget:   in.Amount,
		Rate:            in.Rate,
		TermMonths:      in.TermMonths,
		Status:          loan.StatusPending,
		StatusUpdatedAt: time.Now().UTC(),
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return ToDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return ToDTO(l), nil
}
