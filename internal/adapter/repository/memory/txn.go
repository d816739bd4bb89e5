package memory

import (
	"fmt"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"
)

// staged row plus the committed version it was read at. Only dirty rows are
// checked and written at commit; created rows must still be absent then.
type stagedLoan struct {
	l       *loan.Loan
	base    uint64
	created bool
	dirty   bool
}

type stagedWallet struct {
	w       *wallet.Wallet
	base    uint64
	created bool
	dirty   bool
}

type txn struct {
	s    *Store
	auto bool

	loans     map[string]*stagedLoan
	wallets   map[string]*stagedWallet
	entries   []ledger.Entry
	invKeys   map[string]struct{}
	approvals []*approval.Approval
}

func newTxn(s *Store) *txn {
	t := &txn{s: s}
	t.reset()
	return t
}

func (t *txn) reset() {
	t.loans = map[string]*stagedLoan{}
	t.wallets = map[string]*stagedWallet{}
	t.entries = nil
	t.invKeys = map[string]struct{}{}
	t.approvals = nil
}

// done is called after every write; auto-commit transactions flush right away.
func (t *txn) done(err error) error {
	if err != nil || !t.auto {
		return err
	}
	return t.commit()
}

// loanView returns the staged loan, staging a copy of the committed one on
// first access.
func (t *txn) loanView(loanID string) (*stagedLoan, error) {
	if st, ok := t.loans[loanID]; ok {
		return st, nil
	}
	t.s.mu.RLock()
	cur, ok := t.s.loans[loanID]
	var cp *loan.Loan
	if ok {
		cp = cur.Clone()
	}
	t.s.mu.RUnlock()
	if !ok {
		return nil, loan.ErrNotFound
	}
	st := &stagedLoan{l: cp, base: cp.Version}
	t.loans[loanID] = st
	return st, nil
}

func (t *txn) loanViewByPK(pk uint64) (*stagedLoan, error) {
	for _, st := range t.loans {
		if st.l.ID == pk {
			return st, nil
		}
	}
	t.s.mu.RLock()
	loanID, ok := t.s.loanByPK[pk]
	t.s.mu.RUnlock()
	if !ok {
		return nil, loan.ErrNotFound
	}
	return t.loanView(loanID)
}

func (t *txn) walletView(owner string) (*stagedWallet, error) {
	if st, ok := t.wallets[owner]; ok {
		return st, nil
	}
	t.s.mu.RLock()
	cur, ok := t.s.wallets[owner]
	var cp *wallet.Wallet
	if ok {
		cp = cur.Clone()
	}
	t.s.mu.RUnlock()
	if !ok {
		return nil, wallet.ErrNotFound
	}
	st := &stagedWallet{w: cp, base: cp.Version}
	t.wallets[owner] = st
	return st, nil
}

func (t *txn) entryKeyTaken(key string) bool {
	for _, e := range t.entries {
		if e.IdempotencyKey == key {
			return true
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.entryKeys[key]
	return ok
}

func (t *txn) investmentKeyTaken(key string) bool {
	if _, ok := t.invKeys[key]; ok {
		return true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.invKeys[key]
	return ok
}

// commit validates every staged write against the current state and applies
// all of them, or none.
func (t *txn) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failCommit; err != nil {
		s.failCommit = nil
		return fmt.Errorf("%w: commit: %v", apperr.ErrStorageFailure, err)
	}

	var loanIDs []string
	for _, id := range sortedKeys(t.loans) {
		if t.loans[id].dirty {
			loanIDs = append(loanIDs, id)
		}
	}
	for _, id := range loanIDs {
		st := t.loans[id]
		cur, exists := s.loans[id]
		if st.created {
			if exists {
				return apperr.ErrVersionConflict
			}
			continue
		}
		if !exists || cur.Version != st.base {
			return apperr.ErrVersionConflict
		}
	}
	var owners []string
	for _, o := range sortedKeys(t.wallets) {
		if t.wallets[o].dirty {
			owners = append(owners, o)
		}
	}
	for _, o := range owners {
		st := t.wallets[o]
		cur, exists := s.wallets[o]
		if st.created {
			if exists {
				return apperr.ErrVersionConflict
			}
			continue
		}
		if !exists || cur.Version != st.base {
			return apperr.ErrVersionConflict
		}
	}
	for _, e := range t.entries {
		if _, ok := s.entryKeys[e.IdempotencyKey]; ok {
			return ledger.ErrDuplicateOperation
		}
	}
	for k := range t.invKeys {
		if _, ok := s.invKeys[k]; ok {
			return ledger.ErrDuplicateOperation
		}
	}
	for _, a := range t.approvals {
		if _, ok := s.approvals[a.LoanID]; ok {
			return apperr.ErrVersionConflict
		}
	}

	for _, id := range loanIDs {
		l := t.loans[id].l.Clone()
		s.loans[id] = l
		s.loanByPK[l.ID] = id
	}
	for _, o := range owners {
		s.wallets[o] = t.wallets[o].w.Clone()
	}
	for k := range t.invKeys {
		s.invKeys[k] = struct{}{}
	}
	for _, e := range t.entries {
		s.entryKeys[e.IdempotencyKey] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	for _, a := range t.approvals {
		cp := *a
		s.approvals[a.LoanID] = &cp
	}
	return nil
}
