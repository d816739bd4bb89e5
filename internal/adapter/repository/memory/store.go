// Package memory is a process-local store with the same transactional contract
// as the gorm repositories: writes made inside WithinTx are staged and applied
// at commit only if every version they were based on is still current.
package memory

import (
	"context"
	"sort"
	"sync"

	"p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/domain/wallet"
)

type Store struct {
	mu sync.RWMutex

	loans     map[string]*loan.Loan // by public loan id
	loanByPK  map[uint64]string
	wallets   map[string]*wallet.Wallet // by owner
	entries   []ledger.Entry
	entryKeys map[string]int
	invKeys   map[string]struct{}
	approvals map[uint64]*approval.Approval // by loan pk

	seq        uint64
	failCommit error
}

func NewStore() *Store {
	return &Store{
		loans:     map[string]*loan.Loan{},
		loanByPK:  map[uint64]string{},
		wallets:   map[string]*wallet.Wallet{},
		entryKeys: map[string]int{},
		invKeys:   map[string]struct{}{},
		approvals: map[uint64]*approval.Approval{},
	}
}

func (s *Store) nextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Repos returns auto-commit repositories: every write is its own transaction.
func (s *Store) Repos() uow.Repos { return s.bind(nil) }

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTxn(s)
	if err := fn(s.bind(t)); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

// bind hands out repositories on t, or auto-commit ones when t is nil.
func (s *Store) bind(t *txn) uow.Repos {
	b := binding{s: s, t: t}
	return uow.Repos{
		Loans:     loanRepo{b},
		Approvals: approvalRepo{b},
		Wallets:   walletRepo{b},
		Ledger:    ledgerRepo{b},
	}
}

type binding struct {
	s *Store
	t *txn
}

// tx is the transaction a single repository call runs in.
func (b binding) tx() *txn {
	if b.t != nil {
		return b.t
	}
	t := newTxn(b.s)
	t.auto = true
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
