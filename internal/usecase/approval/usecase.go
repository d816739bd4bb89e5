package approval

import (
	"context"
	"log/slog"
	"time"

	"p2p-lending/internal/domain/apperr"
	domainApproval "p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/kyc"
	domainLoan "p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/lock"
	loanuc "p2p-lending/internal/usecase/loan"
	"p2p-lending/internal/usecase/retry"
	"p2p-lending/pkg/id"

	"github.com/google/uuid"
)

// Deps are the collaborators beyond storage. Unset ones default to no-ops,
// except KYC which defaults to allowing everyone.
type Deps struct {
	Locker lock.Locker
	KYC    kyc.Verifier
	Events event.Emitter
	Policy retry.Policy
	Log    *slog.Logger
	Now    func() time.Time
}

type Usecase struct {
	loanRepo     domainLoan.Repository
	approvalRepo domainApproval.Repository
	uow          uow.UnitOfWork
	Deps
}

// NewUsecase: pass both repos and a UoW for tx flows.
func NewUsecase(loans domainLoan.Repository, approvals domainApproval.Repository, tx uow.UnitOfWork, deps Deps) *Usecase {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = lock.Noop{}
	}
	if deps.KYC == nil {
		deps.KYC = kyc.Allow{}
	}
	if deps.Events == nil {
		deps.Events = event.Nop{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Usecase{loanRepo: loans, approvalRepo: approvals, uow: tx, Deps: deps}
}

// Approve moves a pending loan to approved once the borrower has cleared KYC,
// recording the decision and the repayment schedule in the same transaction.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*ApprovalDTO, error) {
	if in.LoanID == "" || in.AdminID == "" {
		return nil, apperr.Validation("loan id and admin id are required")
	}

	// KYC is checked outside the transaction; the status guard is repeated inside.
	l, err := u.loanRepo.GetByLoanID(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	if l.Status != domainLoan.StatusPending {
		return nil, l.Approve(u.Now())
	}
	verified, err := u.KYC.IsVerified(ctx, l.BorrowerID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, domainLoan.ErrKYCNotVerified
	}

	var dto *ApprovalDTO
	var approved *domainLoan.Loan
	err = u.decide(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		now := u.Now().UTC()
		if err := l.Approve(now); err != nil {
			return err
		}
		a := &domainApproval.Approval{
			ApprovalID: id.NewID32(),
			LoanID:     l.ID, // numeric FK
			AdminID:    in.AdminID,
			Decision:   domainApproval.DecisionApproved,
			DecidedAt:  now,
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return err
		}

		schedule := domainLoan.BuildSchedule(l.FundingTarget, l.Rate, l.TermMonths, now)
		for i := range schedule {
			schedule[i].LoanID = l.ID
		}
		if err := r.Loans.AddInstallments(ctx, schedule); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		l.Installments = schedule
		dto = &ApprovalDTO{
			ApprovalID:   a.ApprovalID,
			LoanID:       l.LoanID,
			Decision:     string(a.Decision),
			AdminID:      a.AdminID,
			DecidedAt:    a.DecidedAt,
			Installments: loanuc.ToDTO(l).Installments,
		}
		approved = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.Log.Info("loan approved", "loan_id", approved.LoanID, "admin_id", in.AdminID)
	u.Events.Emit(event.Event{
		ID:            uuid.NewString(),
		Type:          event.TypeLoanApproved,
		LoanID:        approved.LoanID,
		BorrowerID:    approved.BorrowerID,
		ActorID:       in.AdminID,
		FundingTarget: approved.FundingTarget,
		OccurredAt:    dto.DecidedAt,
	})
	return dto, nil
}

// Reject closes a pending loan with the admin's reason.
func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*ApprovalDTO, error) {
	if in.LoanID == "" || in.AdminID == "" {
		return nil, apperr.Validation("loan id and admin id are required")
	}
	if in.Reason == "" {
		return nil, apperr.Validation("reject reason is required")
	}

	var dto *ApprovalDTO
	var rejected *domainLoan.Loan
	err := u.decide(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		now := u.Now().UTC()
		if err := l.Reject(in.Reason, now); err != nil {
			return err
		}
		a := &domainApproval.Approval{
			ApprovalID: id.NewID32(),
			LoanID:     l.ID,
			AdminID:    in.AdminID,
			Decision:   domainApproval.DecisionRejected,
			Reason:     in.Reason,
			DecidedAt:  now,
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = &ApprovalDTO{
			ApprovalID: a.ApprovalID,
			LoanID:     l.LoanID,
			Decision:   string(a.Decision),
			AdminID:    a.AdminID,
			Reason:     a.Reason,
			DecidedAt:  a.DecidedAt,
		}
		rejected = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.Log.Info("loan rejected", "loan_id", rejected.LoanID, "admin_id", in.AdminID)
	u.Events.Emit(event.Event{
		ID:         uuid.NewString(),
		Type:       event.TypeLoanRejected,
		LoanID:     rejected.LoanID,
		BorrowerID: rejected.BorrowerID,
		ActorID:    in.AdminID,
		Reason:     in.Reason,
		OccurredAt: dto.DecidedAt,
	})
	return dto, nil
}

// Get returns the recorded decision for a loan.
func (u *Usecase) Get(ctx context.Context, loanID string) (*ApprovalDTO, error) {
	l, err := u.loanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	a, err := u.approvalRepo.GetByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	out := &ApprovalDTO{
		ApprovalID: a.ApprovalID,
		LoanID:     l.LoanID,
		Decision:   string(a.Decision),
		AdminID:    a.AdminID,
		Reason:     a.Reason,
		DecidedAt:  a.DecidedAt,
	}
	if a.Decision == domainApproval.DecisionApproved {
		out.Installments = loanuc.ToDTO(l).Installments
	}
	return out, nil
}

// decide runs fn on the locked loan, retrying transient failures. A second
// decision racing the first surfaces as the first one's status error.
func (u *Usecase) decide(ctx context.Context, loanID string, fn func(r uow.Repos, l *domainLoan.Loan) error) error {
	err := retry.Do(ctx, u.Policy, func() error {
		release, err := u.Locker.Acquire(ctx, lock.LoanKey(loanID))
		if err != nil {
			return err
		}
		defer release()
		return u.uow.WithinLoanTx(ctx, loanID, fn)
	})
	if apperr.Transient(err) {
		u.Log.Warn("loan decision gave up", "loan_id", loanID, "error", err)
	}
	return retry.Exhausted(err)
}
