package audit

import (
	"time"

	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
)

// WalletReport compares a stored balance with the replay of its ledger.
type WalletReport struct {
	WalletID   string    `json:"wallet_id"`
	Balance    int64     `json:"balance"`
	Replayed   int64     `json:"replayed"`
	Entries    int       `json:"entries"`
	Consistent bool      `json:"consistent"`
	Issues     []string  `json:"issues,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// LoanReport compares a loan's funded amount with its investments and fund
// entries.
type LoanReport struct {
	LoanID        string      `json:"loan_id"`
	Status        loan.Status `json:"status"`
	FundingTarget int64       `json:"funding_target"`
	FundedAmount  int64       `json:"funded_amount"`
	Invested      int64       `json:"invested"`
	FundEntries   int64       `json:"fund_entries"`
	Consistent    bool        `json:"consistent"`
	Issues        []string    `json:"issues,omitempty"`
	CheckedAt     time.Time   `json:"checked_at"`
}

// Summary is the result of a full pass. Only inconsistent reports are kept.
type Summary struct {
	WalletsChecked int            `json:"wallets_checked"`
	LoansChecked   int            `json:"loans_checked"`
	Wallets        []WalletReport `json:"wallets,omitempty"`
	Loans          []LoanReport   `json:"loans,omitempty"`
}

func (s *Summary) Consistent() bool { return len(s.Wallets) == 0 && len(s.Loans) == 0 }

type EntryDTO struct {
	EntryID         string           `json:"entry_id"`
	IdempotencyKey  string           `json:"idempotency_key"`
	Operation       ledger.Operation `json:"operation"`
	WalletID        string           `json:"wallet_id,omitempty"`
	LoanID          string           `json:"loan_id,omitempty"`
	Amount          int64            `json:"amount"`
	ResultingAmount int64            `json:"resulting_amount"`
	Reference       string           `json:"reference,omitempty"`
	LoanStatus      string           `json:"loan_status,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func toDTOs(in []ledger.Entry) []EntryDTO {
	out := make([]EntryDTO, 0, len(in))
	for _, e := range in {
		out = append(out, EntryDTO{
			EntryID:         e.EntryID,
			IdempotencyKey:  e.IdempotencyKey,
			Operation:       e.Operation,
			WalletID:        e.WalletID,
			LoanID:          e.LoanID,
			Amount:          e.Amount,
			ResultingAmount: e.ResultingAmount,
			Reference:       e.Reference,
			LoanStatus:      e.LoanStatus,
			CreatedAt:       e.CreatedAt,
		})
	}
	return out
}
