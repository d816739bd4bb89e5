package memory

import (
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"
)

// FailNextCommit makes the next commit fail with err wrapped as a storage
// failure, after validation would have passed. Test helper.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

// SeedWallet creates or overwrites a wallet with the given balance, bypassing
// the ledger. Test helper.
func (s *Store) SeedWallet(ownerID string, balance int64) *wallet.Wallet {
	id := s.nextID()
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &wallet.Wallet{ID: id, OwnerID: ownerID, Balance: balance}
	if cur, ok := s.wallets[ownerID]; ok {
		w.ID = cur.ID
		w.Version = cur.Version + 1
	}
	s.wallets[ownerID] = w
	return w.Clone()
}

// SeedLoan stores l as committed, assigning an id if it has none. Test helper.
func (s *Store) SeedLoan(l *loan.Loan) *loan.Loan {
	if l.ID == 0 {
		l.ID = s.nextID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := l.Clone()
	s.loans[l.LoanID] = cp
	s.loanByPK[l.ID] = l.LoanID
	for _, inv := range cp.Investments {
		s.invKeys[inv.IdempotencyKey] = struct{}{}
	}
	return cp.Clone()
}
