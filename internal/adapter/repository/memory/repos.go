package memory

import (
	"context"
	"sort"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"
)

type loanRepo struct{ b binding }

func (r loanRepo) Create(_ context.Context, l *loan.Loan) error {
	t := r.b.tx()
	if _, err := t.loanView(l.LoanID); err == nil {
		return apperr.ErrVersionConflict
	}
	now := time.Now().UTC()
	l.ID = r.b.s.nextID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	cp := l.Clone()
	cp.Investments, cp.Installments = nil, nil
	t.loans[l.LoanID] = &stagedLoan{l: cp, created: true, dirty: true}
	return t.done(nil)
}

func (r loanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	st, err := r.b.tx().loanView(loanID)
	if err != nil {
		return nil, err
	}
	return st.l.Clone(), nil
}

// GetByLoanIDForUpdate has no row lock here; commit-time version checks
// provide the same guarantee.
func (r loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r loanRepo) GetPendingLoanByBorrowerID(_ context.Context, borrowerID string) (*loan.Loan, error) {
	var best *loan.Loan
	for _, l := range r.snapshot() {
		if l.BorrowerID != borrowerID || l.Status != loan.StatusPending {
			continue
		}
		if best == nil || l.StatusUpdatedAt.After(best.StatusUpdatedAt) ||
			(l.StatusUpdatedAt.Equal(best.StatusUpdatedAt) && l.ID > best.ID) {
			best = l
		}
	}
	if best == nil {
		return nil, loan.ErrNotFound
	}
	return best, nil
}

func (r loanRepo) Save(_ context.Context, l *loan.Loan) error {
	t := r.b.tx()
	st, err := t.loanView(l.LoanID)
	if err != nil {
		return t.done(err)
	}
	if st.l.Version != l.Version {
		return apperr.ErrVersionConflict
	}
	cur := st.l
	cur.FundingTarget = l.FundingTarget
	cur.FundedAmount = l.FundedAmount
	cur.Status = l.Status
	cur.StatusReason = l.StatusReason
	cur.StatusUpdatedAt = l.StatusUpdatedAt
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	st.dirty = true
	l.Version++
	return t.done(nil)
}

func (r loanRepo) AddInvestment(_ context.Context, inv *loan.Investment) error {
	t := r.b.tx()
	if t.investmentKeyTaken(inv.IdempotencyKey) {
		return ledger.ErrDuplicateOperation
	}
	st, err := t.loanViewByPK(inv.LoanID)
	if err != nil {
		return err
	}
	inv.ID = r.b.s.nextID()
	st.l.Investments = append(st.l.Investments, *inv)
	st.dirty = true
	t.invKeys[inv.IdempotencyKey] = struct{}{}
	return t.done(nil)
}

func (r loanRepo) AddInstallments(_ context.Context, rows []loan.Installment) error {
	if len(rows) == 0 {
		return nil
	}
	t := r.b.tx()
	for i := range rows {
		st, err := t.loanViewByPK(rows[i].LoanID)
		if err != nil {
			return err
		}
		rows[i].ID = r.b.s.nextID()
		st.l.Installments = append(st.l.Installments, rows[i])
		st.dirty = true
	}
	return t.done(nil)
}

func (r loanRepo) List(_ context.Context, afterID uint64, limit int) ([]loan.Loan, error) {
	all := r.snapshot()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := make([]loan.Loan, 0, limit)
	for _, l := range all {
		if l.ID <= afterID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *l)
	}
	return out, nil
}

// snapshot merges committed loans with this transaction's view of them.
func (r loanRepo) snapshot() []*loan.Loan {
	t := r.b.tx()
	r.b.s.mu.RLock()
	out := make([]*loan.Loan, 0, len(r.b.s.loans)+len(t.loans))
	for id, l := range r.b.s.loans {
		if _, staged := t.loans[id]; !staged {
			out = append(out, l.Clone())
		}
	}
	r.b.s.mu.RUnlock()
	for _, st := range t.loans {
		out = append(out, st.l.Clone())
	}
	return out
}

type walletRepo struct{ b binding }

func (r walletRepo) Create(_ context.Context, w *wallet.Wallet) error {
	t := r.b.tx()
	if _, err := t.walletView(w.OwnerID); err == nil {
		return apperr.ErrVersionConflict
	}
	now := time.Now().UTC()
	w.ID = r.b.s.nextID()
	w.CreatedAt, w.UpdatedAt = now, now
	t.wallets[w.OwnerID] = &stagedWallet{w: w.Clone(), created: true, dirty: true}
	return t.done(nil)
}

func (r walletRepo) GetByOwnerID(_ context.Context, ownerID string) (*wallet.Wallet, error) {
	st, err := r.b.tx().walletView(ownerID)
	if err != nil {
		return nil, err
	}
	return st.w.Clone(), nil
}

func (r walletRepo) GetByOwnerIDForUpdate(ctx context.Context, ownerID string) (*wallet.Wallet, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r walletRepo) Save(_ context.Context, w *wallet.Wallet) error {
	t := r.b.tx()
	st, err := t.walletView(w.OwnerID)
	if err != nil {
		return err
	}
	if st.w.Version != w.Version {
		return apperr.ErrVersionConflict
	}
	st.w.Balance = w.Balance
	st.w.Version++
	st.w.UpdatedAt = time.Now().UTC()
	st.dirty = true
	w.Version++
	return t.done(nil)
}

func (r walletRepo) ListOwnerIDs(_ context.Context) ([]string, error) {
	t := r.b.tx()
	r.b.s.mu.RLock()
	all := make([]*wallet.Wallet, 0, len(r.b.s.wallets)+len(t.wallets))
	for o, w := range r.b.s.wallets {
		if _, staged := t.wallets[o]; !staged {
			all = append(all, w)
		}
	}
	r.b.s.mu.RUnlock()
	for _, st := range t.wallets {
		all = append(all, st.w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := make([]string, len(all))
	for i, w := range all {
		out[i] = w.OwnerID
	}
	return out, nil
}

type ledgerRepo struct{ b binding }

func (r ledgerRepo) Append(_ context.Context, e *ledger.Entry) error {
	t := r.b.tx()
	if t.entryKeyTaken(e.IdempotencyKey) {
		return ledger.ErrDuplicateOperation
	}
	e.ID = r.b.s.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	t.entries = append(t.entries, *e)
	return t.done(nil)
}

func (r ledgerRepo) GetByIdempotencyKey(_ context.Context, key string) (*ledger.Entry, error) {
	for _, e := range r.all() {
		if e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (r ledgerRepo) ListByWallet(_ context.Context, walletID string) ([]ledger.Entry, error) {
	return r.filter(func(e ledger.Entry) bool { return e.WalletID == walletID }), nil
}

func (r ledgerRepo) ListByLoan(_ context.Context, loanID string) ([]ledger.Entry, error) {
	return r.filter(func(e ledger.Entry) bool { return e.LoanID == loanID }), nil
}

// all returns committed entries followed by staged ones, in append order.
func (r ledgerRepo) all() []ledger.Entry {
	t := r.b.tx()
	r.b.s.mu.RLock()
	out := make([]ledger.Entry, 0, len(r.b.s.entries)+len(t.entries))
	out = append(out, r.b.s.entries...)
	r.b.s.mu.RUnlock()
	return append(out, t.entries...)
}

func (r ledgerRepo) filter(keep func(ledger.Entry) bool) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range r.all() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

type approvalRepo struct{ b binding }

func (r approvalRepo) Create(ctx context.Context, a *approval.Approval) error {
	t := r.b.tx()
	if _, err := r.GetByLoanID(ctx, a.LoanID); err == nil {
		return apperr.ErrVersionConflict
	}
	a.ID = r.b.s.nextID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	t.approvals = append(t.approvals, &cp)
	return t.done(nil)
}

func (r approvalRepo) GetByLoanID(_ context.Context, loanID uint64) (*approval.Approval, error) {
	return r.find(func(a *approval.Approval) bool { return a.LoanID == loanID })
}

func (r approvalRepo) GetByApprovalID(_ context.Context, approvalID string) (*approval.Approval, error) {
	return r.find(func(a *approval.Approval) bool { return a.ApprovalID == approvalID })
}

func (r approvalRepo) find(match func(*approval.Approval) bool) (*approval.Approval, error) {
	t := r.b.tx()
	for _, a := range t.approvals {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	r.b.s.mu.RLock()
	defer r.b.s.mu.RUnlock()
	for _, a := range r.b.s.approvals {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, approval.ErrNotFound
}
