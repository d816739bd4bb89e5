package events

import (
	"context"
	"log/slog"

	"p2p-lending/internal/domain/event"
)

// LogPublisher writes events to the structured logger; the default sink when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e event.Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("event",
		"id", e.ID,
		"type", e.Type,
		"loan_id", e.LoanID,
		"lender_id", e.LenderID,
		"amount", e.Amount,
		"funded_amount", e.FundedAmount,
		"reason", e.Reason,
	)
	return nil
}
