package http

import (
	stdhttp "net/http"
	"testing"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/usecase/audit"
	"p2p-lending/internal/usecase/wallet"
)

func TestDepositWithdraw(t *testing.T) {
	e := newEchoWithValidator()
	a := newApp()
	h := a.handlers.Wallets

	key := nextReqID()
	rec := call(t, e, h.Deposit, stdhttp.MethodPost, "/wallets/me/deposits", mustJSON(map[string]any{"amount": 1000}), lenderA, key)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	first := decode[wallet.MovementDTO](t, rec)
	if first.Balance != 1000 || first.WalletID != lenderA.id {
		t.Fatalf("unexpected movement: %+v", first)
	}

	rec = call(t, e, h.Deposit, stdhttp.MethodPost, "/wallets/me/deposits", mustJSON(map[string]any{"amount": 1000}), lenderA, key)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("replay status = %d, want 200", rec.Code)
	}
	if again := decode[wallet.MovementDTO](t, rec); again.EntryID != first.EntryID {
		t.Fatalf("replay returned a new entry: %+v", again)
	}

	rec = call(t, e, h.Withdraw, stdhttp.MethodPost, "/wallets/me/withdrawals", mustJSON(map[string]any{"amount": 5000}), lenderA, nextReqID())
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("overdraw status = %d, want 409", rec.Code)
	}
	if er := decode[ErrorResponse](t, rec); er.Code != apperr.CodeInsufficientFunds {
		t.Fatalf("code = %q", er.Code)
	}

	rec = call(t, e, h.Withdraw, stdhttp.MethodPost, "/wallets/me/withdrawals", mustJSON(map[string]any{"amount": 250}), lenderA, nextReqID())
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("withdraw status = %d, want 201", rec.Code)
	}

	rec = call(t, e, h.Balance, stdhttp.MethodGet, "/wallets/me/balance", nil, lenderA, "", "user_id", "me")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("balance status = %d", rec.Code)
	}
	if bal := decode[wallet.BalanceDTO](t, rec); bal.Balance != 750 {
		t.Fatalf("balance = %d, want 750", bal.Balance)
	}

	rec = call(t, e, h.Deposit, stdhttp.MethodPost, "/wallets/me/deposits", mustJSON(map[string]any{"amount": 1}), lenderA, "")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("missing request id status = %d, want 400", rec.Code)
	}
}

func TestWalletReadAccess(t *testing.T) {
	e := newEchoWithValidator()
	a := newApp()
	a.store.SeedWallet(lenderA.id, 10)

	cases := []struct {
		name string
		who  caller
		want int
	}{
		{"owner", lenderA, stdhttp.StatusOK},
		{"admin", admin, stdhttp.StatusOK},
		{"someone else", lenderB, stdhttp.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, e, a.handlers.Wallets.Balance, stdhttp.MethodGet, "/wallets/lender-a/balance", nil, tc.who, "", "user_id", lenderA.id)
			if rec.Code != tc.want {
				t.Fatalf("balance status = %d, want %d", rec.Code, tc.want)
			}
			rec = call(t, e, a.handlers.Audit.WalletEntries, stdhttp.MethodGet, "/wallets/lender-a/entries", nil, tc.who, "", "user_id", lenderA.id)
			if rec.Code != tc.want {
				t.Fatalf("entries status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	rec := call(t, e, a.handlers.Wallets.Balance, stdhttp.MethodGet, "/wallets/nobody/balance", nil, admin, "", "user_id", "nobody")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("missing wallet status = %d, want 404", rec.Code)
	}
}

func TestReconcileWallet_ReportsDrift(t *testing.T) {
	e := newEchoWithValidator()
	a := newApp()

	rec := call(t, e, a.handlers.Wallets.Deposit, stdhttp.MethodPost, "/wallets/me/deposits", mustJSON(map[string]any{"amount": 300}), lenderA, nextReqID())
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("deposit status = %d", rec.Code)
	}
	rec = call(t, e, a.handlers.Audit.ReconcileWallet, stdhttp.MethodGet, "/wallets/lender-a/reconcile", nil, admin, "", "user_id", lenderA.id)
	if rep := decode[audit.WalletReport](t, rec); rec.Code != stdhttp.StatusOK || !rep.Consistent {
		t.Fatalf("status = %d report = %+v", rec.Code, rep)
	}

	a.store.SeedWallet(lenderA.id, 999)
	rec = call(t, e, a.handlers.Audit.ReconcileWallet, stdhttp.MethodGet, "/wallets/lender-a/reconcile", nil, admin, "", "user_id", lenderA.id)
	if rep := decode[audit.WalletReport](t, rec); rep.Consistent || rep.Replayed != 300 {
		t.Fatalf("expected drift: %+v", rep)
	}
}
