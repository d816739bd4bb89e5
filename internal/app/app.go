// Package app builds the engine from configuration. Both the HTTP server and
// the reconcile CLI start from here so they see the same storage and backends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpadp "p2p-lending/internal/adapter/http"
	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/adapter/repository/gormdb"
	"p2p-lending/internal/adapter/repository/memory"
	"p2p-lending/internal/config"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/kyc"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/infrastructure/cache"
	"p2p-lending/internal/infrastructure/db"
	"p2p-lending/internal/infrastructure/events"
	kycinfra "p2p-lending/internal/infrastructure/kyc"
	"p2p-lending/internal/lock"
	"p2p-lending/internal/usecase/approval"
	"p2p-lending/internal/usecase/audit"
	"p2p-lending/internal/usecase/funding"
	"p2p-lending/internal/usecase/loan"
	"p2p-lending/internal/usecase/retry"
	"p2p-lending/internal/usecase/wallet"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Cfg *config.Config
	Log *slog.Logger

	Tx    uow.UnitOfWork
	Repos uow.Repos
	Redis *redis.Client

	Locker     lock.Locker
	Dispatcher *events.Dispatcher

	Loans     *loan.Usecase
	Approvals *approval.Usecase
	Wallets   *wallet.Usecase
	Funding   *funding.Coordinator
	Audit     *audit.Usecase

	checks  []httpadp.Check
	closers []func() error
}

// Build opens storage and every configured backend. On error whatever was
// already opened is closed again.
func Build(cfg *config.Config, log *slog.Logger) (a *App, err error) {
	a = &App{Cfg: cfg, Log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
			a = nil
		}
	}()

	if err = a.openStorage(); err != nil {
		return a, err
	}
	if cfg.NeedsRedis() || cfg.RedisAddr != "" {
		if a.Redis, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return a, err
		}
		a.closers = append(a.closers, a.Redis.Close)
		rdb := a.Redis
		a.checks = append(a.checks, httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	switch cfg.LockBackend {
	case config.LockRedis:
		a.Locker = lock.NewRedis(a.Redis, cfg.LockTTL, cfg.LockWait)
	default:
		a.Locker = lock.NewMemory(cfg.LockWait)
	}

	pub, err := a.publisher()
	if err != nil {
		return a, err
	}
	a.Dispatcher = events.NewDispatcher(pub, cfg.EventBuffer, log)

	var verifier kyc.Verifier = kyc.Allow{}
	if cfg.KYCMode == config.KYCRedis {
		verifier = kycinfra.NewRedisVerifier(a.Redis)
	}

	policy := retry.DefaultPolicy(cfg.FundMaxAttempts)
	r := a.Repos
	a.Loans = loan.NewUsecase(r.Loans, a.Locker)
	a.Approvals = approval.NewUsecase(r.Loans, r.Approvals, a.Tx, approval.Deps{
		Locker: a.Locker,
		KYC:    verifier,
		Events: a.Dispatcher,
		Policy: policy,
		Log:    log,
	})
	a.Wallets = wallet.NewUsecase(r.Wallets, r.Ledger, a.Tx, a.Locker, policy, log)
	a.Funding = funding.NewCoordinator(a.Tx, r, a.Locker, a.Dispatcher, policy, log)
	a.Audit = audit.NewUsecase(r.Loans, r.Wallets, r.Ledger, log)
	return a, nil
}

func (a *App) openStorage() error {
	if a.Cfg.DBDriver == config.DriverMemory {
		s := memory.NewStore()
		a.Tx, a.Repos = s, s.Repos()
		a.Log.Warn("using in-memory storage; state is lost on exit")
		return nil
	}
	db.SetLogLevel(a.Cfg.LogLevel)
	gdb, err := db.Open(a.Cfg.DBDriver, a.Cfg.DSN())
	if err != nil {
		return fmt.Errorf("open %s: %w", a.Cfg.DBDriver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	a.closers = append(a.closers, sqlDB.Close)
	a.checks = append(a.checks, httpadp.Check{Name: a.Cfg.DBDriver, Ping: sqlDB.PingContext})
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	u := gormdb.NewGormUoW(gdb)
	a.Tx, a.Repos = u, u.Repos()
	return nil
}

func (a *App) publisher() (event.Publisher, error) {
	switch a.Cfg.EventSink {
	case config.SinkRedis:
		return events.NewRedisPublisher(a.Redis, ""), nil
	case config.SinkKafka:
		k := events.NewKafkaPublisher(a.Cfg.KafkaBrokers, a.Cfg.KafkaTopic)
		a.closers = append(a.closers, k.Close)
		return k, nil
	case config.SinkLog, "":
		return events.NewLogPublisher(a.Log), nil
	}
	return nil, fmt.Errorf("unknown event sink %q", a.Cfg.EventSink)
}

// Handlers returns the HTTP handler set over the built usecases.
func (a *App) Handlers() httpadp.Handlers {
	return httpadp.Handlers{
		Health:    httpadp.NewHandler(a.checks...),
		Loans:     httpadp.NewLoanHandler(a.Loans, a.Funding),
		Approvals: httpadp.NewApprovalHandler(a.Approvals),
		Wallets:   httpadp.NewWalletHandler(a.Wallets),
		Audit:     httpadp.NewAuditHandler(a.Audit),
	}
}

// Idempotency returns the response cache middleware, or nil without Redis.
func (a *App) Idempotency() echo.MiddlewareFunc {
	if a.Redis == nil {
		return nil
	}
	return middleware.IdempotencyMiddleware(a.Redis, time.Duration(a.Cfg.IdempTTLSecs)*time.Second, a.Log)
}

// Close drains pending events first, then closes sinks, Redis and the database
// in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain events: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
