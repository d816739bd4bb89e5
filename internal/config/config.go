package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LockMemory = "memory"
	LockRedis  = "redis"

	SinkLog   = "log"
	SinkRedis = "redis"
	SinkKafka = "kafka"

	KYCAllow = "allow"
	KYCRedis = "redis"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBDriver string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LockBackend     string
	LockWait        time.Duration
	LockTTL         time.Duration
	FundMaxAttempts int

	EventSink    string
	EventBuffer  int
	KafkaBrokers []string
	KafkaTopic   string

	KYCMode string

	ShutdownTimeout time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getms(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return d
}

// Load reads the environment, after loading a .env file when one is present.
// Variables already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver: strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		PostgresDSN: getenv("POSTGRES_DSN", ""),
		SQLitePath:  getenv("SQLITE_PATH", "data/lending.db"),

		RedisAddr: getenv("REDIS_ADDR", ""),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		LockBackend:     strings.ToLower(getenv("LOCK_BACKEND", LockMemory)),
		LockWait:        getms("LOCK_WAIT_MS", 2*time.Second),
		LockTTL:         getms("LOCK_TTL_MS", 10*time.Second),
		FundMaxAttempts: getint("FUND_MAX_ATTEMPTS", 5),

		EventSink:   strings.ToLower(getenv("EVENT_SINK", SinkLog)),
		EventBuffer: getint("EVENT_BUFFER", 1024),
		KafkaTopic:  getenv("KAFKA_TOPIC", "p2p.loan-events"),

		KYCMode: strings.ToLower(getenv("KYC_MODE", KYCAllow)),

		ShutdownTimeout: getms("SHUTDOWN_TIMEOUT_MS", 10*time.Second),
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			c.KafkaBrokers = append(c.KafkaBrokers, b)
		}
	}
	return c
}

// NeedsRedis reports whether any configured backend talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.LockBackend == LockRedis || c.EventSink == SinkRedis || c.KYCMode == KYCRedis
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.LockBackend {
	case LockMemory, LockRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	switch c.EventSink {
	case SinkLog, SinkRedis:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("EVENT_SINK=kafka needs KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown EVENT_SINK %q", c.EventSink)
	}
	switch c.KYCMode {
	case KYCAllow, KYCRedis:
	default:
		return fmt.Errorf("unknown KYC_MODE %q", c.KYCMode)
	}
	if c.NeedsRedis() && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required by the configured lock, event or kyc backend")
	}

	if c.LockWait <= 0 || c.LockTTL <= 0 {
		return errors.New("LOCK_WAIT_MS and LOCK_TTL_MS must be positive")
	}
	if c.FundMaxAttempts < 1 {
		return errors.New("FUND_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		return c.MySQLDSN()
	case DriverPostgres:
		return c.PostgresDSN
	case DriverSQLite:
		return c.SQLitePath
	}
	return ""
}
