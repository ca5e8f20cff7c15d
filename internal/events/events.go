// Package events announces completed ledger operations to downstream systems.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// TopicTransactionCompleted is the default topic for TransactionCompleted events.
const TopicTransactionCompleted = "transaction_completed"

// TransactionCompleted is emitted after a unit of work commits.
type TransactionCompleted struct {
	TxID        int64          `json:"tx_id"`
	UserID      int64          `json:"user_id"`
	Type        ledger.Kind    `json:"type"`
	FromAccount int64          `json:"from_account_id"`
	ToAccount   int64          `json:"to_account_id"`
	Amount      money.Amount   `json:"amount"`
	Currency    money.Currency `json:"currency"`
	Credited    money.Amount   `json:"credited_amount,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Publisher delivers events. Delivery is best effort: the ledger is already
// committed when Publish runs.
type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}

// LoggerPublisher writes events to the structured logger. It is used when no
// broker is configured.
type LoggerPublisher struct {
	logger *slog.Logger
}

// NewLoggerPublisher constructs a logging publisher.
func NewLoggerPublisher(logger *slog.Logger) *LoggerPublisher {
	return &LoggerPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LoggerPublisher) Publish(_ context.Context, event TransactionCompleted) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("transaction completed",
		"tx_id", event.TxID,
		"user_id", event.UserID,
		"type", string(event.Type),
		"amount", event.Amount.String(),
		"currency", string(event.Currency),
	)
	return nil
}

// Notify publishes event and logs, rather than returns, any delivery failure.
func Notify(ctx context.Context, p Publisher, logger *slog.Logger, event TransactionCompleted) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("publish transaction event", "tx_id", event.TxID, "error", err)
	}
}
