package wallet

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/uow"
	domain "p2p-lending/internal/domain/wallet"
	"p2p-lending/internal/lock"
	"p2p-lending/internal/usecase/retry"
)

type Usecase struct {
	wallets domain.Repository
	entries ledger.Repository
	uow     uow.UnitOfWork
	locker  lock.Locker
	policy  retry.Policy
	log     *slog.Logger
}

func NewUsecase(wallets domain.Repository, entries ledger.Repository, tx uow.UnitOfWork, locker lock.Locker, policy retry.Policy, log *slog.Logger) *Usecase {
	return &Usecase{wallets: wallets, entries: entries, uow: tx, locker: locker, policy: policy, log: log}
}

// Deposit credits funds arriving from the payment gateway, opening the wallet
// on first use.
func (u *Usecase) Deposit(ctx context.Context, in MovementInput) (*MovementDTO, error) {
	return u.move(ctx, in, ledger.OpDeposit, true)
}

// Withdraw debits funds leaving to the payment gateway.
func (u *Usecase) Withdraw(ctx context.Context, in MovementInput) (*MovementDTO, error) {
	return u.move(ctx, in, ledger.OpWithdrawal, false)
}

func (u *Usecase) Debit(ctx context.Context, in MovementInput) (*MovementDTO, error) {
	return u.move(ctx, in, ledger.OpDebit, false)
}

func (u *Usecase) Credit(ctx context.Context, in MovementInput) (*MovementDTO, error) {
	return u.move(ctx, in, ledger.OpCredit, false)
}

func (u *Usecase) GetBalance(ctx context.Context, userID string) (*BalanceDTO, error) {
	w, err := u.wallets.GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{WalletID: w.OwnerID, Balance: w.Balance, Version: w.Version, AsOf: time.Now().UTC()}, nil
}

// move returns ledger.ErrDuplicateOperation together with the original
// result when the key was already applied.
func (u *Usecase) move(ctx context.Context, in MovementInput, op ledger.Operation, open bool) (*MovementDTO, error) {
	if in.UserID == "" {
		return nil, apperr.Validation("user id is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if in.IdempotencyKey == "" {
		return nil, apperr.Validation("idempotency key is required")
	}
	if prior, err := u.entries.GetByIdempotencyKey(ctx, in.IdempotencyKey); err == nil {
		if err := sameMovement(prior, in, op); err != nil {
			return nil, err
		}
		return toMovement(prior), ledger.ErrDuplicateOperation
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	var out *MovementDTO
	err := retry.Do(ctx, u.policy, func() error {
		release, err := u.locker.Acquire(ctx, lock.WalletKey(in.UserID))
		if err != nil {
			return err
		}
		defer release()

		var posted, prior *MovementDTO
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			if e, err := r.Ledger.GetByIdempotencyKey(ctx, in.IdempotencyKey); err == nil {
				if err := sameMovement(e, in, op); err != nil {
					return err
				}
				prior = toMovement(e)
				return ledger.ErrDuplicateOperation
			} else if !errors.Is(err, ledger.ErrNotFound) {
				return err
			}
			_, e, err := Post(ctx, r, Posting{
				OwnerID:   in.UserID,
				Op:        op,
				Amount:    in.Amount,
				Key:       in.IdempotencyKey,
				Reference: in.Reference,
				Open:      open,
			})
			if err != nil {
				return err
			}
			posted = toMovement(e)
			return nil
		})
		switch {
		case err == nil:
			out = posted
		case prior != nil:
			out = prior
		}
		return err
	})
	if errors.Is(err, ledger.ErrDuplicateOperation) {
		if out == nil {
			// lost a commit race to the same key
			prior, lerr := u.entries.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if lerr != nil {
				return nil, lerr
			}
			if lerr := sameMovement(prior, in, op); lerr != nil {
				return nil, lerr
			}
			out = toMovement(prior)
		}
		return out, err
	}
	if err != nil {
		if apperr.Transient(err) {
			u.log.Warn("wallet movement gave up", "op", op, "wallet_id", in.UserID, "key", in.IdempotencyKey, "error", err)
		}
		return nil, retry.Exhausted(err)
	}
	u.log.Info("wallet movement", "op", op, "wallet_id", in.UserID, "amount", in.Amount, "balance", out.Balance)
	return out, nil
}

// sameMovement reports whether a stored entry was written by this request.
func sameMovement(e *ledger.Entry, in MovementInput, op ledger.Operation) error {
	if e.WalletID != in.UserID || e.Operation != op || e.Amount != in.Amount {
		return ledger.ErrKeyReused
	}
	return nil
}
