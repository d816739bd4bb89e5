package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// BuildSchedule splits principal plus flat annual interest into equal monthly
// installments. Rounding remainders land on the last installment so the rows
// always sum to the totals.
func BuildSchedule(principal int64, annualRate decimal.Decimal, months int, start time.Time) []Installment {
	if months <= 0 || principal <= 0 {
		return nil
	}
	n := int64(months)
	totalInterest := decimal.NewFromInt(principal).
		Mul(annualRate).
		Mul(decimal.NewFromInt(n)).
		Div(twelve).
		Round(0).
		IntPart()

	basePrincipal := principal / n
	baseInterest := totalInterest / n

	start = start.UTC()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]Installment, 0, months)
	for i := 1; i <= months; i++ {
		p, in := basePrincipal, baseInterest
		if i == months {
			p = principal - basePrincipal*(n-1)
			in = totalInterest - baseInterest*(n-1)
		}
		out = append(out, Installment{
			Seq:       i,
			DueDate:   first.AddDate(0, i, 0),
			Principal: p,
			Interest:  in,
			Amount:    p + in,
		})
	}
	return out
}
