package wallet

import (
	"time"

	"p2p-lending/internal/domain/ledger"
)

type MovementInput struct {
	UserID         string `json:"-"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"-"`
	Reference      string `json:"reference,omitempty"`
}

// MovementDTO is the outcome of a deposit, withdrawal, debit or credit. A
// replayed key returns the original one.
type MovementDTO struct {
	EntryID        string           `json:"entry_id"`
	WalletID       string           `json:"wallet_id"`
	Operation      ledger.Operation `json:"operation"`
	Amount         int64            `json:"amount"`
	Balance        int64            `json:"balance"`
	IdempotencyKey string           `json:"idempotency_key"`
	CreatedAt      time.Time        `json:"created_at"`
}

type BalanceDTO struct {
	WalletID string    `json:"wallet_id"`
	Balance  int64     `json:"balance"`
	Version  uint64    `json:"version"`
	AsOf     time.Time `json:"as_of"`
}

func toMovement(e *ledger.Entry) *MovementDTO {
	return &MovementDTO{
		EntryID:        e.EntryID,
		WalletID:       e.WalletID,
		Operation:      e.Operation,
		Amount:         e.Amount,
		Balance:        e.ResultingAmount,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt,
	}
}
