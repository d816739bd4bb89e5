package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"p2p-lending/internal/adapter/repository/memory"
	"p2p-lending/internal/app"
	"p2p-lending/internal/config"
	kycinfra "p2p-lending/internal/infrastructure/kyc"
	"p2p-lending/internal/logging"
	"p2p-lending/internal/usecase/audit"
	"p2p-lending/internal/usecase/wallet"

	"github.com/alicebob/miniredis/v2"
)

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:        config.DriverMemory,
		LockBackend:     config.LockMemory,
		LockWait:        time.Second,
		LockTTL:         time.Second,
		FundMaxAttempts: 3,
		EventSink:       config.SinkLog,
		KYCMode:         config.KYCAllow,
	}
}

// withApp points the commands at a, which is built once per test and
// shared across invocations.
func withApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, err := app.Build(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	orig := build
	build = func() (*app.App, func(), error) { return a, func() {}, nil }
	t.Cleanup(func() {
		build = orig
		_ = a.Close(context.Background())
	})
	return a
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAll_Consistent(t *testing.T) {
	a := withApp(t, testConfig())
	if _, err := a.Wallets.Deposit(context.Background(), wallet.MovementInput{UserID: "lender-1", Amount: 50, IdempotencyKey: "k1"}); err != nil {
		t.Fatal(err)
	}

	out, err := execute("all")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	var sum audit.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("bad json: %v\n%s", err, out)
	}
	if sum.WalletsChecked != 1 || !sum.Consistent() {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestWallet_Drift(t *testing.T) {
	a := withApp(t, testConfig())
	if _, err := a.Wallets.Deposit(context.Background(), wallet.MovementInput{UserID: "lender-1", Amount: 50, IdempotencyKey: "k1"}); err != nil {
		t.Fatal(err)
	}
	a.Tx.(*memory.Store).SeedWallet("lender-1", 70)

	out, err := execute("wallet", "lender-1")
	if !errors.Is(err, errDrift) {
		t.Fatalf("expected drift error, got %v", err)
	}
	var rep audit.WalletReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("bad json: %v\n%s", err, out)
	}
	if rep.Balance != 70 || rep.Replayed != 50 {
		t.Fatalf("unexpected report %+v", rep)
	}

	if _, err := execute("all"); !errors.Is(err, errDrift) {
		t.Fatalf("all: expected drift error, got %v", err)
	}
}

func TestLoan_NotFound(t *testing.T) {
	withApp(t, testConfig())
	if _, err := execute("loan", "missing"); err == nil {
		t.Fatal("expected error for unknown loan")
	}
}

func TestArgs(t *testing.T) {
	withApp(t, testConfig())
	if _, err := execute("wallet"); err == nil {
		t.Fatal("wallet without id must fail")
	}
	if _, err := execute("all", "extra"); err == nil {
		t.Fatal("all takes no args")
	}
}

func TestKYCVerify(t *testing.T) {
	t.Run("needs redis", func(t *testing.T) {
		withApp(t, testConfig())
		if _, err := execute("kyc-verify", "u1"); err == nil {
			t.Fatal("expected error without redis")
		}
	})
	t.Run("marks users", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.RedisAddr = mr.Addr()
		a := withApp(t, cfg)

		out, err := execute("kyc-verify", "u1", "u2")
		if err != nil {
			t.Fatalf("kyc-verify: %v", err)
		}
		if !strings.Contains(out, "verified u2") {
			t.Fatalf("unexpected output %q", out)
		}
		ok, err := kycinfra.NewRedisVerifier(a.Redis).IsVerified(context.Background(), "u2")
		if err != nil || !ok {
			t.Fatalf("u2 not verified: ok=%v err=%v", ok, err)
		}
	})
}
