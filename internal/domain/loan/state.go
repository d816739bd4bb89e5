package loan

import (
	"time"

	"p2p-lending/internal/domain/apperr"
)

// transitions lists every legal status move. Funding moves (approved -> funded)
// are only applied through ApplyFunding; funded -> completed/defaulted belong to
// the repayment subsystem.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusFunded},
	StatusFunded:    {StatusCompleted, StatusDefaulted},
	StatusCompleted: {StatusDefaulted},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further move is allowed from s.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFunded, StatusCompleted, StatusDefaulted:
		return true
	}
	return false
}

func (l *Loan) moveTo(to Status, reason string, at time.Time) error {
	if !CanTransition(l.Status, to) {
		return ErrInvalidTransition
	}
	l.Status = to
	l.StatusReason = reason
	l.StatusUpdatedAt = at.UTC()
	return nil
}

// Approve moves a pending loan to approved.
func (l *Loan) Approve(at time.Time) error {
	if l.Status == StatusApproved {
		return ErrAlreadyApproved
	}
	if l.Status != StatusPending {
		return ErrInvalidTransition
	}
	return l.moveTo(StatusApproved, "", at)
}

// Reject moves a pending loan to rejected with the admin's reason.
func (l *Loan) Reject(reason string, at time.Time) error {
	if reason == "" {
		return apperr.Validation("reject reason is required")
	}
	if l.Status != StatusPending {
		return ErrInvalidTransition
	}
	return l.moveTo(StatusRejected, reason, at)
}

// Settle is the hook used by the repayment subsystem (completed or defaulted).
func (l *Loan) Settle(to Status, reason string, at time.Time) error {
	if to != StatusCompleted && to != StatusDefaulted {
		return ErrInvalidTransition
	}
	return l.moveTo(to, reason, at)
}

// CheckFundable validates a contribution of amount against the current record.
func (l *Loan) CheckFundable(amount int64) error {
	if amount <= 0 {
		return apperr.Validation("amount must be positive")
	}
	switch l.Status {
	case StatusApproved:
	case StatusFunded:
		return ErrFullyFunded
	default:
		return ErrInvalidTransition
	}
	if amount > l.Remaining() {
		return ErrExceedsRemainingCapacity
	}
	return nil
}

// ApplyFunding records inv and moves the loan to funded once the target is met.
// It returns true when this contribution completed the funding.
func (l *Loan) ApplyFunding(inv Investment) (bool, error) {
	if err := l.CheckFundable(inv.Amount); err != nil {
		return false, err
	}
	inv.LoanID = l.ID
	l.Investments = append(l.Investments, inv)
	l.FundedAmount += inv.Amount
	if l.FundedAmount >= l.FundingTarget {
		if err := l.moveTo(StatusFunded, "", inv.CommittedAt); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
