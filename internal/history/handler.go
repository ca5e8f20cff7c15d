package history

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/bank_ledger/internal/auth"
	"github.com/congo-pay/bank_ledger/internal/httperr"
	"github.com/congo-pay/bank_ledger/internal/ledger"
)

// Handler exposes the transaction log and ledger endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Transactions lists the caller's transactions. Query: type, page, limit.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	var kind ledger.Kind
	if raw := c.Query("type"); raw != "" {
		if kind, err = ledger.ParseKind(raw); err != nil {
			return httperr.From(err)
		}
	}
	txs, err := h.service.Transactions(c.UserContext(), TransactionQuery{UserID: auth.UserID(c), Type: kind, Page: page})
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(txs)
}

// Entries lists postings visible to the caller. Query: tx_id, account_id, page, limit.
func (h *Handler) Entries(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	txID, err := optionalID(c, "tx_id")
	if err != nil {
		return err
	}
	accountID, err := optionalID(c, "account_id")
	if err != nil {
		return err
	}
	entries, err := h.service.Entries(c.UserContext(), EntryQuery{
		UserID:    auth.UserID(c),
		TxID:      txID,
		AccountID: accountID,
		Page:      page,
	})
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(entries)
}

func pageFrom(c *fiber.Ctx) (ledger.Page, error) {
	var p ledger.Page
	var err error
	if p.Page, err = optionalInt(c, "page"); err != nil {
		return ledger.Page{}, err
	}
	if p.Page > ledger.MaxPage {
		return ledger.Page{}, httperr.BadRequest("page out of range")
	}
	if p.Limit, err = optionalInt(c, "limit"); err != nil {
		return ledger.Page{}, err
	}
	return p.Normalize(), nil
}

func optionalInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, httperr.BadRequest("invalid " + name)
	}
	return n, nil
}

func optionalID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, httperr.BadRequest("invalid " + name)
	}
	return id, nil
}
