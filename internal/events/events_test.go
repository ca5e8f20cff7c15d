package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/congo-pay/bank_ledger/internal/ledger"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, TransactionCompleted) error {
	return errors.New("broker down")
}

func TestLoggerPublisher_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	p := NewLoggerPublisher(logger)

	Notify(context.Background(), p, logger, TransactionCompleted{TxID: 9, UserID: 1, Type: ledger.KindTransfer, Amount: 4_000})

	out := buf.String()
	if !strings.Contains(out, `"tx_id":9`) || !strings.Contains(out, `"amount":"40.00"`) {
		t.Fatalf("unexpected log output %s", out)
	}
}

func TestNotify_LogsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	Notify(context.Background(), failingPublisher{}, logger, TransactionCompleted{TxID: 3})

	if !strings.Contains(buf.String(), "broker down") {
		t.Fatalf("expected failure to be logged, got %s", buf.String())
	}
}
