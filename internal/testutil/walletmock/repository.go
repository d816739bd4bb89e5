package walletmock

import (
	"context"

	domain "p2p-lending/internal/domain/wallet"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, w *domain.Wallet) error
	GetByOwnerIDFn          func(ctx context.Context, ownerID string) (*domain.Wallet, error)
	GetByOwnerIDForUpdateFn func(ctx context.Context, ownerID string) (*domain.Wallet, error)
	SaveFn                  func(ctx context.Context, w *domain.Wallet) error
	ListOwnerIDsFn          func(ctx context.Context) ([]string, error)
}

func (m *Repo) Create(ctx context.Context, w *domain.Wallet) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, w)
	}
	return nil
}

func (m *Repo) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if m.GetByOwnerIDFn != nil {
		return m.GetByOwnerIDFn(ctx, ownerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByOwnerIDForUpdate(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	if m.GetByOwnerIDForUpdateFn != nil {
		return m.GetByOwnerIDForUpdateFn(ctx, ownerID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, w *domain.Wallet) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, w)
	}
	return nil
}

func (m *Repo) ListOwnerIDs(ctx context.Context) ([]string, error) {
	if m.ListOwnerIDsFn != nil {
		return m.ListOwnerIDsFn(ctx)
	}
	return nil, context.Canceled
}
