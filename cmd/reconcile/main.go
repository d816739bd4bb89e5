// Command reconcile replays the ledger against stored balances and loan
// records and exits non-zero when they disagree.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"p2p-lending/internal/app"
	"p2p-lending/internal/config"
	kycinfra "p2p-lending/internal/infrastructure/kyc"
	"p2p-lending/internal/logging"
)

var errDrift = errors.New("ledger drift detected")

// build is swapped in tests. The returned func releases the engine.
var build = func() (*app.App, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	a, err := app.Build(cfg, logging.New(cfg.LogLevel))
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close(context.Background()) }, nil
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reconcile",
		Short:         "Check wallets and loans against the ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Duration("timeout", 5*time.Minute, "Give up after this long")

	root.AddCommand(allCmd())
	root.AddCommand(walletCmd())
	root.AddCommand(loanCmd())
	root.AddCommand(kycCmd())
	return root
}

// run builds the engine, calls fn and closes everything again.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, release, err := build()
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Reconcile every wallet and loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				sum, err := a.Audit.ReconcileAll(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), sum); err != nil {
					return err
				}
				if !sum.Consistent() {
					return fmt.Errorf("%w: %d wallets, %d loans", errDrift, len(sum.Wallets), len(sum.Loans))
				}
				return nil
			})
		},
	}
}

func walletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet [user_id]",
		Short: "Reconcile one wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				rep, err := a.Audit.ReconcileWallet(ctx, args[0])
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				if !rep.Consistent {
					return errDrift
				}
				return nil
			})
		},
	}
}

func loanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loan [loan_id]",
		Short: "Reconcile one loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				rep, err := a.Audit.ReconcileLoan(ctx, args[0])
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				if !rep.Consistent {
					return errDrift
				}
				return nil
			})
		},
	}
}

// kycCmd seeds the Redis KYC store for environments without the real subsystem.
func kycCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kyc-verify [user_id...]",
		Short: "Mark users as KYC verified in Redis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app.App) error {
				if a.Redis == nil {
					return errors.New("kyc-verify needs REDIS_ADDR")
				}
				v := kycinfra.NewRedisVerifier(a.Redis)
				for _, u := range args {
					if err := v.MarkVerified(ctx, u); err != nil {
						return fmt.Errorf("%s: %w", u, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "verified %s\n", u)
				}
				return nil
			})
		},
	}
}
