package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"p2p-lending/internal/domain/approval"
	"p2p-lending/internal/domain/ledger"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/wallet"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var gormLevel = logger.Warn

// GormLevel maps an application log level onto gorm's SQL logger. SQL
// statements are only traced at debug.
func GormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	}
	return logger.Warn
}

// SetLogLevel applies to connections opened afterwards.
func SetLogLevel(level string) { gormLevel = GormLevel(level) }

// Open picks the gorm dialector for driver and connects with OpenGormWithDialector.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case DriverMySQL:
		dial = mysql.Open(dsn)
	case DriverPostgres:
		dial = postgres.Open(dsn)
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	return OpenGormWithDialector(dial)
}

// OpenGormWithDialector configures pooling and checks the connection. Unique
// violations are translated to gorm.ErrDuplicatedKey, which the repositories
// rely on for idempotency.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(gormLevel),
		TranslateError:       true,
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dial.Name() == DriverSQLite {
		// one writer; the lock package serializes the rest
		sqlDB.SetMaxOpenConns(1)
		_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
		_, _ = sqlDB.Exec("PRAGMA busy_timeout = 5000;")
	} else {
		sqlDB.SetMaxOpenConns(30)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	slog.Info("gorm: connected", "dialect", dial.Name())
	return db, nil
}

// Migrate creates or updates every table the engine writes to.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loan.Loan{},
		&loan.Investment{},
		&loan.Installment{},
		&approval.Approval{},
		&wallet.Wallet{},
		&ledger.Entry{},
	)
}
