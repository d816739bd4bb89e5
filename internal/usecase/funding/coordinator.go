package funding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/lock"
	"p2p-lending/internal/usecase/retry"
	walletuc "p2p-lending/internal/usecase/wallet"

	"github.com/google/uuid"
)

// Coordinator is the only writer of a loan's funded amount and investments.
// Each contribution debits the lender, credits the borrower and records the
// investment in one transaction under per-entity locks.
type Coordinator struct {
	uow    uow.UnitOfWork
	reads  uow.Repos
	locker lock.Locker
	events event.Emitter
	policy retry.Policy
	log    *slog.Logger
	now    func() time.Time
}

// NewCoordinator takes reads, repositories outside any transaction, for the
// optimistic pre-check and for replaying duplicate keys.
func NewCoordinator(tx uow.UnitOfWork, reads uow.Repos, locker lock.Locker, events event.Emitter, policy retry.Policy, log *slog.Logger) *Coordinator {
	if events == nil {
		events = event.Nop{}
	}
	return &Coordinator{
		uow:    tx,
		reads:  reads,
		locker: locker,
		events: events,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// Fund commits one lender contribution. A key that was already applied
// returns the original result together with ledger.ErrDuplicateOperation.
func (c *Coordinator) Fund(ctx context.Context, in FundInput) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if res, err := replay(ctx, c.reads, in); err == nil {
		return res, ledger.ErrDuplicateOperation
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	// Optimistic pre-check so doomed requests never touch a lock.
	l, err := c.reads.Loans.GetByLoanID(ctx, in.LoanID)
	if errors.Is(err, loan.ErrNotFound) {
		return nil, c.rejected(in, nil, err)
	}
	if err != nil {
		return nil, err
	}
	if l.BorrowerID == in.LenderID {
		return nil, apperr.Validation("lender cannot fund own loan")
	}
	if err := l.CheckFundable(in.Amount); err != nil {
		return nil, c.rejected(in, l, err)
	}

	var res *Result
	err = retry.Do(ctx, c.policy, func() error {
		r, err := c.attempt(ctx, in, l.BorrowerID)
		if r != nil {
			res = r
		}
		return err
	})

	switch {
	case err == nil:
		c.funded(res)
		return res, nil
	case errors.Is(err, ledger.ErrDuplicateOperation):
		if res == nil {
			// lost the commit race to a request with the same key
			if res, err = replay(ctx, c.reads, in); err != nil {
				return nil, err
			}
		}
		return res, ledger.ErrDuplicateOperation
	case errors.Is(err, apperr.ErrValidation):
		return nil, err
	case apperr.Transient(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		err = retry.Exhausted(err)
		c.log.Error("funding gave up",
			"loan_id", in.LoanID, "lender_id", in.LenderID, "key", in.IdempotencyKey,
			"amount", in.Amount, "code", apperr.Code(err), "error", err)
		return nil, err
	default:
		return nil, c.rejected(in, l, err)
	}
}

// attempt is one locked transaction. On a replayed key it returns the prior
// result with ledger.ErrDuplicateOperation.
func (c *Coordinator) attempt(ctx context.Context, in FundInput, borrowerID string) (*Result, error) {
	release, err := c.locker.Acquire(ctx,
		lock.LoanKey(in.LoanID),
		lock.WalletKey(in.LenderID),
		lock.WalletKey(borrowerID),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	var committed, prior *Result
	err = c.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if p, err := replay(ctx, r, in); err == nil {
			prior = p
			return ledger.ErrDuplicateOperation
		} else if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		now := c.now().UTC()
		inv := loan.Investment{
			LenderID:       in.LenderID,
			Amount:         in.Amount,
			IdempotencyKey: in.IdempotencyKey,
			CommittedAt:    now,
		}
		full, err := l.ApplyFunding(inv)
		if err != nil {
			return err
		}

		lender, _, err := walletuc.Post(ctx, r, walletuc.Posting{
			OwnerID:   in.LenderID,
			Op:        ledger.OpDebit,
			Amount:    in.Amount,
			Key:       ledger.DebitKey(in.IdempotencyKey),
			LoanID:    l.LoanID,
			Reference: l.BorrowerID,
			At:        now,
		})
		if err != nil {
			return err
		}
		borrower, _, err := walletuc.Post(ctx, r, walletuc.Posting{
			OwnerID:   l.BorrowerID,
			Op:        ledger.OpCredit,
			Amount:    in.Amount,
			Key:       ledger.CreditKey(in.IdempotencyKey),
			LoanID:    l.LoanID,
			Reference: in.LenderID,
			Open:      true,
			At:        now,
		})
		if err != nil {
			return err
		}

		inv.LoanID = l.ID
		if err := r.Loans.AddInvestment(ctx, &inv); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Ledger.Append(ctx, &ledger.Entry{
			EntryID:         uuid.NewString(),
			IdempotencyKey:  in.IdempotencyKey,
			Operation:       ledger.OpFund,
			LoanID:          l.LoanID,
			Amount:          in.Amount,
			ResultingAmount: l.FundedAmount,
			Reference:       in.LenderID,
			LoanStatus:      string(l.Status),
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		committed = &Result{
			LoanID:          l.LoanID,
			LoanStatus:      l.Status,
			FundedAmount:    l.FundedAmount,
			FundingTarget:   l.FundingTarget,
			Remaining:       l.Remaining(),
			FullyFunded:     full,
			LenderID:        in.LenderID,
			LenderBalance:   lender.Balance,
			BorrowerID:      l.BorrowerID,
			BorrowerBalance: borrower.Balance,
			Amount:          in.Amount,
			IdempotencyKey:  in.IdempotencyKey,
			CommittedAt:     now,
		}
		return nil
	})
	switch {
	case err == nil:
		return committed, nil
	case prior != nil:
		return prior, err
	}
	return nil, err
}

// replay rebuilds the result of an applied key from its ledger rows. The key
// only replays for the same loan, lender and amount.
func replay(ctx context.Context, r uow.Repos, in FundInput) (*Result, error) {
	key := in.IdempotencyKey
	fund, err := r.Ledger.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if fund.Operation != ledger.OpFund {
		return nil, apperr.Validation("idempotency key %q belongs to a %s", key, fund.Operation)
	}
	if fund.LoanID != in.LoanID || fund.Reference != in.LenderID || fund.Amount != in.Amount {
		return nil, ledger.ErrKeyReused
	}
	res := &Result{
		LoanID:         fund.LoanID,
		LoanStatus:     loan.Status(fund.LoanStatus),
		FundedAmount:   fund.ResultingAmount,
		FullyFunded:    loan.Status(fund.LoanStatus) == loan.StatusFunded,
		LenderID:       fund.Reference,
		Amount:         fund.Amount,
		IdempotencyKey: key,
		CommittedAt:    fund.CreatedAt,
	}
	if debit, err := r.Ledger.GetByIdempotencyKey(ctx, ledger.DebitKey(key)); err == nil {
		res.LenderBalance = debit.ResultingAmount
	}
	if credit, err := r.Ledger.GetByIdempotencyKey(ctx, ledger.CreditKey(key)); err == nil {
		res.BorrowerID = credit.WalletID
		res.BorrowerBalance = credit.ResultingAmount
	}
	if l, err := r.Loans.GetByLoanID(ctx, fund.LoanID); err == nil {
		res.FundingTarget = l.FundingTarget
		res.Remaining = l.FundingTarget - res.FundedAmount
	}
	return res, nil
}

func (c *Coordinator) funded(res *Result) {
	c.log.Info("loan funded",
		"loan_id", res.LoanID, "lender_id", res.LenderID, "amount", res.Amount,
		"funded_amount", res.FundedAmount, "funding_target", res.FundingTarget)
	base := event.Event{
		LoanID:        res.LoanID,
		BorrowerID:    res.BorrowerID,
		LenderID:      res.LenderID,
		Amount:        res.Amount,
		FundedAmount:  res.FundedAmount,
		FundingTarget: res.FundingTarget,
		OccurredAt:    res.CommittedAt,
	}
	e := base
	e.ID, e.Type = uuid.NewString(), event.TypeLoanFunded
	c.events.Emit(e)
	if res.FullyFunded {
		e = base
		e.ID, e.Type = uuid.NewString(), event.TypeLoanFullyFunded
		c.events.Emit(e)
	}
}

// rejected reports a business-rule failure and passes err through.
func (c *Coordinator) rejected(in FundInput, l *loan.Loan, err error) error {
	c.log.Info("funding rejected",
		"loan_id", in.LoanID, "lender_id", in.LenderID, "amount", in.Amount, "code", apperr.Code(err))
	e := event.Event{
		ID:         uuid.NewString(),
		Type:       event.TypeFundingRejected,
		LoanID:     in.LoanID,
		LenderID:   in.LenderID,
		Amount:     in.Amount,
		Reason:     apperr.Code(err),
		OccurredAt: c.now().UTC(),
	}
	if l != nil {
		e.BorrowerID = l.BorrowerID
		e.FundedAmount = l.FundedAmount
		e.FundingTarget = l.FundingTarget
	}
	c.events.Emit(e)
	return err
}
