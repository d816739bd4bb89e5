package ledger

import (
	"fmt"
	"time"

	"p2p-lending/internal/domain/apperr"
)

type Operation string

const (
	OpDeposit    Operation = "deposit"
	OpWithdrawal Operation = "withdrawal"
	OpDebit      Operation = "debit"
	OpCredit     Operation = "credit"
	OpFund       Operation = "fund"
)

var (
	ErrDuplicateOperation = apperr.New(apperr.CodeDuplicate, "duplicate operation")
	ErrNotFound           = apperr.New(apperr.CodeNotFound, "ledger entry not found")

	// ErrKeyReused: the key was applied to a different request.
	ErrKeyReused = fmt.Errorf("%w: idempotency key reused with a different request", apperr.ErrValidation)
)

// Entry is an immutable audit record of a balance-affecting operation.
// Wallet entries carry the resulting balance, fund entries the resulting
// funded amount of the loan.
type Entry struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	EntryID         string    `gorm:"size:36;not null;uniqueIndex:ux_ledger_entry_id" json:"entry_id"`
	IdempotencyKey  string    `gorm:"size:160;not null;uniqueIndex:ux_ledger_idempotency_key" json:"idempotency_key"`
	Operation       Operation `gorm:"size:16;not null" json:"operation"`
	WalletID        string    `gorm:"size:64;index:idx_ledger_wallet" json:"wallet_id,omitempty"`
	LoanID          string    `gorm:"size:32;index:idx_ledger_loan" json:"loan_id,omitempty"`
	Amount          int64     `gorm:"not null" json:"amount"`
	ResultingAmount int64     `gorm:"not null" json:"resulting_amount"`
	Reference       string    `gorm:"size:128;index" json:"reference,omitempty"`
	LoanStatus      string    `gorm:"size:16" json:"loan_status,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

func (Entry) TableName() string { return "ledger_entries" }

// Signed returns the balance effect of a wallet entry; zero for fund entries.
func (e Entry) Signed() int64 {
	switch e.Operation {
	case OpDeposit, OpCredit:
		return e.Amount
	case OpDebit, OpWithdrawal:
		return -e.Amount
	}
	return 0
}

// Leg keys derive the wallet entries of a funding from its idempotency key.
func DebitKey(key string) string  { return key + ":debit" }
func CreditKey(key string) string { return key + ":credit" }
