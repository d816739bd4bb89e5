package uowmock

import (
	"context"
	"errors"
	"testing"

	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/testutil/approvalmock"
	"p2p-lending/internal/testutil/loanmock"
)

func TestUoW_Unset(t *testing.T) {
	m := New()
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx: got %v", err)
	}
	if err := m.WithinLoanTx(context.Background(), "L1", func(uow.Repos, *loan.Loan) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinLoanTx: got %v", err)
	}
}

func TestUoW_WithWithinLoanTx(t *testing.T) {
	want := &loan.Loan{LoanID: "L1"}
	m := New().WithWithinLoanTx(func(ctx context.Context, id string, fn func(uow.Repos, *loan.Loan) error) error {
		if id != "L1" {
			t.Fatalf("loan id = %q", id)
		}
		return fn(uow.Repos{}, want)
	})
	var got *loan.Loan
	if err := m.WithinLoanTx(context.Background(), "L1", func(_ uow.Repos, l *loan.Loan) error { got = l; return nil }); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("callback saw %+v", got)
	}
}

func TestOver(t *testing.T) {
	ctx := context.Background()
	stored := &loan.Loan{LoanID: "L1"}
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, id string) (*loan.Loan, error) {
			if id != "L1" {
				return nil, loan.ErrNotFound
			}
			return stored, nil
		},
	}
	repos := uow.Repos{Loans: loans, Approvals: &approvalmock.Repo{}}
	m := Over(repos)

	t.Run("tx forwards repos and error", func(t *testing.T) {
		boom := errors.New("boom")
		err := m.WithinTx(ctx, func(r uow.Repos) error {
			if r.Loans != loans {
				t.Fatal("repos not forwarded")
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("loan tx loads the loan", func(t *testing.T) {
		var got *loan.Loan
		if err := m.WithinLoanTx(ctx, "L1", func(_ uow.Repos, l *loan.Loan) error { got = l; return nil }); err != nil {
			t.Fatal(err)
		}
		if got != stored {
			t.Fatalf("callback saw %+v", got)
		}
	})
	t.Run("missing loan skips callback", func(t *testing.T) {
		called := false
		err := m.WithinLoanTx(ctx, "nope", func(uow.Repos, *loan.Loan) error { called = true; return nil })
		if !errors.Is(err, loan.ErrNotFound) || called {
			t.Fatalf("err=%v called=%v", err, called)
		}
	})
}
