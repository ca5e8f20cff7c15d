package funding

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/congo-pay/bank_ledger/internal/money"
)

// ErrDeclined is returned when the acquirer refuses a card operation.
var ErrDeclined = errors.New("card operation declined")

// Acquirer represents a connector to an external card processor.
type Acquirer interface {
	AuthorizeCardIn(ctx context.Context, input CardAuthorization) (AuthorizationDecision, error)
	AuthorizeCardOut(ctx context.Context, input CardAuthorization) (AuthorizationDecision, error)
	// Void cancels an approved authorization that was never settled.
	Void(ctx context.Context, reference string) error
}

// AuthorizationDecision captures the acquirer's response.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// CardAuthorization carries the details sent to the acquirer.
type CardAuthorization struct {
	CardNumber string
	Amount     money.Amount
	Currency   money.Currency
}

// StaticAcquirer simulates an acquirer. Cards ending in 0000 are declined so
// the rejection path can be exercised locally.
type StaticAcquirer struct{}

func (StaticAcquirer) AuthorizeCardIn(_ context.Context, in CardAuthorization) (AuthorizationDecision, error) {
	return decide(in)
}

func (StaticAcquirer) AuthorizeCardOut(_ context.Context, in CardAuthorization) (AuthorizationDecision, error) {
	return decide(in)
}

func (StaticAcquirer) Void(context.Context, string) error {
	return nil
}

func decide(in CardAuthorization) (AuthorizationDecision, error) {
	if strings.HasSuffix(in.CardNumber, "0000") {
		return AuthorizationDecision{Status: "declined"}, ErrDeclined
	}
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}
