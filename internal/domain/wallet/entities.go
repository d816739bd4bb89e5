package wallet

import (
	"time"

	"p2p-lending/internal/domain/apperr"
)

var (
	ErrNotFound          = apperr.New(apperr.CodeNotFound, "wallet not found")
	ErrInsufficientFunds = apperr.New(apperr.CodeInsufficientFunds, "insufficient funds")
)

// Wallet holds one non-negative balance per user. Balance changes only through
// Debit and Credit and are persisted with a version check.
type Wallet struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	OwnerID   string    `gorm:"size:64;not null;uniqueIndex:ux_wallets_owner" json:"owner_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Version   uint64    `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return apperr.Validation("amount must be positive")
	}
	if w.Balance < amount {
		return ErrInsufficientFunds
	}
	w.Balance -= amount
	return nil
}

func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return apperr.Validation("amount must be positive")
	}
	w.Balance += amount
	return nil
}

func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	out := *w
	return &out
}
