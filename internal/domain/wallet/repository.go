package wallet

import "context"

type Repository interface {
	// Create fails if the owner already has a wallet.
	Create(ctx context.Context, w *Wallet) error
	GetByOwnerID(ctx context.Context, ownerID string) (*Wallet, error)
	GetByOwnerIDForUpdate(ctx context.Context, ownerID string) (*Wallet, error)
	// Save writes Balance only if the stored version equals w.Version, then bumps it.
	Save(ctx context.Context, w *Wallet) error
	ListOwnerIDs(ctx context.Context) ([]string, error)
}
