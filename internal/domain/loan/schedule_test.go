package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildSchedule(t *testing.T) {
	start := time.Date(2026, 1, 31, 15, 30, 0, 0, time.UTC)
	rows := BuildSchedule(1_000_000, decimal.RequireFromString("0.12"), 3, start)
	if len(rows) != 3 {
		t.Fatalf("len = %d", len(rows))
	}

	var principal, interest int64
	for i, r := range rows {
		if r.Seq != i+1 {
			t.Errorf("row %d seq = %d", i, r.Seq)
		}
		if r.Amount != r.Principal+r.Interest {
			t.Errorf("row %d amount mismatch: %+v", i, r)
		}
		principal += r.Principal
		interest += r.Interest
	}
	// 1,000,000 * 12% * 3/12
	if principal != 1_000_000 || interest != 30_000 {
		t.Fatalf("totals principal=%d interest=%d", principal, interest)
	}
	if rows[0].Principal != 333_333 || rows[2].Principal != 333_334 {
		t.Fatalf("remainder not on last row: %+v", rows)
	}
	if rows[0].DueDate.Hour() != 0 || !rows[0].DueDate.After(start) {
		t.Fatalf("unexpected first due date %v", rows[0].DueDate)
	}
}

func TestBuildSchedule_Degenerate(t *testing.T) {
	if rows := BuildSchedule(0, decimal.Zero, 12, time.Now()); rows != nil {
		t.Fatalf("zero principal should give no rows: %+v", rows)
	}
	if rows := BuildSchedule(100, decimal.Zero, 0, time.Now()); rows != nil {
		t.Fatalf("zero term should give no rows: %+v", rows)
	}
	rows := BuildSchedule(100, decimal.Zero, 1, time.Now())
	if len(rows) != 1 || rows[0].Interest != 0 || rows[0].Amount != 100 {
		t.Fatalf("unexpected single row: %+v", rows)
	}
}
