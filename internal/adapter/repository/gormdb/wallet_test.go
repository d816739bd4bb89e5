package gormdb

import (
	"context"
	"errors"
	"testing"

	"p2p-lending/internal/domain/apperr"
	walletDomain "p2p-lending/internal/domain/wallet"
)

func TestWallet_CreateGetSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	w := &walletDomain.Wallet{OwnerID: "lender-1"}
	if err := repo.Create(ctx, w); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &walletDomain.Wallet{OwnerID: "lender-1"}); !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("expected conflict on duplicate owner, got %v", err)
	}

	got, err := repo.GetByOwnerIDForUpdate(ctx, "lender-1")
	if err != nil {
		t.Fatal(err)
	}
	stale := got.Clone()
	if err := got.Credit(500); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := stale.Credit(1); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, stale); !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	again, err := repo.GetByOwnerID(ctx, "lender-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Balance != 500 || again.Version != 1 {
		t.Fatalf("unexpected wallet: %+v", again)
	}
}

func TestWallet_NotFoundAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByOwnerID(ctx, "ghost"); !errors.Is(err, walletDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, o := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &walletDomain.Wallet{OwnerID: o}); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := repo.ListOwnerIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected owners: %v", ids)
	}
}
