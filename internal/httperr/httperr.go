// Package httperr translates domain errors into HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/identity"
	"github.com/congo-pay/bank_ledger/internal/ledger"
	"github.com/congo-pay/bank_ledger/internal/money"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrUnsupportedCurrency),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidRequest),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCurrencyMismatch),
		errors.Is(err, ledger.ErrNotExchangePair),
		errors.Is(err, money.ErrUnsupportedPair):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// From converts err into a *fiber.Error. Server-side failures get a generic
// message so internals do not leak to clients.
func From(err error) error {
	if err == nil {
		return nil
	}
	status := Status(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		return fiber.NewError(status, "internal server error")
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fiber.NewError(status, message(err))
}

// BadRequest wraps a malformed-input failure such as an unparsable body.
func BadRequest(msg string) error {
	return fiber.NewError(http.StatusBadRequest, msg)
}

func message(err error) string {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return ledger.ErrAccountNotFound.Error()
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return ledger.ErrTransactionNotFound.Error()
	case errors.Is(err, ledger.ErrConflict):
		return ledger.ErrConflict.Error()
	}
	return err.Error()
}

// Handler is the Fiber error handler that renders every error as {"error": msg}.
func Handler(c *fiber.Ctx, err error) error {
	fe, ok := From(err).(*fiber.Error)
	if !ok {
		fe = fiber.ErrInternalServerError
	}
	return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
}
