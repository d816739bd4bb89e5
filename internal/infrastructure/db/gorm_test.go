package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})

	gdb, err := OpenGormWithDialector(dial)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}
	if !gdb.Config.TranslateError {
		t.Fatalf("TranslateError must be on for duplicate detection")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"loans", "loan_investments", "loan_installments", "approvals", "wallets", "ledger_entries"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migrate", table)
		}
	}

	// duplicate keys surface as gorm.ErrDuplicatedKey
	type row struct {
		ID  uint   `gorm:"primaryKey"`
		Key string `gorm:"uniqueIndex"`
	}
	if err := gdb.AutoMigrate(&row{}); err != nil {
		t.Fatal(err)
	}
	if err := gdb.Create(&row{Key: "k"}).Error; err != nil {
		t.Fatal(err)
	}
	err = gdb.Create(&row{Key: "k"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}

func TestGormLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug": logger.Info,
		"DEBUG": logger.Info,
		"info":  logger.Warn,
		"warn":  logger.Warn,
		"error": logger.Error,
		"":      logger.Warn,
	}
	for in, want := range cases {
		if got := GormLevel(in); got != want {
			t.Fatalf("GormLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
