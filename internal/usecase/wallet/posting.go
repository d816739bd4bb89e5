package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/uow"
	domain "p2p-lending/internal/domain/wallet"

	"github.com/google/uuid"
)

// Posting is one balance change plus its ledger row. Open creates the wallet
// when the owner has none yet.
type Posting struct {
	OwnerID   string
	Op        ledger.Operation
	Amount    int64
	Key       string
	LoanID    string
	Reference string
	Open      bool
	At        time.Time
}

// Post applies p through repositories bound to the caller's transaction, so the
// balance and its ledger entry commit together with whatever else the caller writes.
func Post(ctx context.Context, r uow.Repos, p Posting) (*domain.Wallet, *ledger.Entry, error) {
	w, err := r.Wallets.GetByOwnerIDForUpdate(ctx, p.OwnerID)
	if errors.Is(err, domain.ErrNotFound) && p.Open {
		w = &domain.Wallet{OwnerID: p.OwnerID}
		err = r.Wallets.Create(ctx, w)
	}
	if err != nil {
		return nil, nil, err
	}

	switch p.Op {
	case ledger.OpDebit, ledger.OpWithdrawal:
		err = w.Debit(p.Amount)
	case ledger.OpCredit, ledger.OpDeposit:
		err = w.Credit(p.Amount)
	default:
		err = fmt.Errorf("unsupported wallet operation %q", p.Op)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := r.Wallets.Save(ctx, w); err != nil {
		return nil, nil, err
	}

	at := p.At
	if at.IsZero() {
		at = time.Now()
	}
	e := &ledger.Entry{
		EntryID:         uuid.NewString(),
		IdempotencyKey:  p.Key,
		Operation:       p.Op,
		WalletID:        p.OwnerID,
		LoanID:          p.LoanID,
		Amount:          p.Amount,
		ResultingAmount: w.Balance,
		Reference:       p.Reference,
		CreatedAt:       at.UTC(),
	}
	if err := r.Ledger.Append(ctx, e); err != nil {
		return nil, nil, err
	}
	return w, e, nil
}
