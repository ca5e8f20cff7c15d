package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/bank_ledger/internal/money"
)

const (
	defaultMaxAttempts = 3
	lockTimeout        = "5s"
)

// PostgresStore persists accounts, postings and transactions in PostgreSQL.
// Writers lock the touched account rows with SELECT ... FOR UPDATE in id
// order; readers use a read-only REPEATABLE READ snapshot.
type PostgresStore struct {
	db          *pgxpool.Pool
	maxAttempts int
}

// NewPostgresStore constructs a Postgres-backed store. Units of work that hit a
// serialization failure, deadlock or lock timeout are retried up to
// maxAttempts times before ErrConflict is returned.
func NewPostgresStore(db *pgxpool.Pool, maxAttempts int) *PostgresStore {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &PostgresStore{db: db, maxAttempts: maxAttempts}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EnsureAccount guarantees an account exists for the (user, currency) pair.
func (s *PostgresStore) EnsureAccount(ctx context.Context, userID int64, currency money.Currency) (Account, error) {
	if _, err := s.db.Exec(ctx, `INSERT INTO accounts (user_id, currency) VALUES ($1, $2)
        ON CONFLICT (user_id, currency) DO NOTHING`, userID, string(currency)); err != nil {
		return Account{}, err
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND currency = $2`, userID, string(currency))
	return scanAccount(row)
}

// View runs fn inside a read-only REPEATABLE READ transaction so every query
// observes the same snapshot.
func (s *PostgresStore) View(ctx context.Context, fn func(r Reader) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(pgReader{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update runs fn as one database transaction with the listed accounts locked.
func (s *PostgresStore) Update(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error {
	ids := uniqueSorted(accountIDs)
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.update(ctx, ids, fn)
		if !isRetryable(err) {
			return err
		}
		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func (s *PostgresStore) update(ctx context.Context, ids []int64, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	locked := make(map[int64]bool, len(ids))
	if len(ids) > 0 {
		rows, err := tx.Query(ctx, `SELECT id FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
		if err != nil {
			return err
		}
		got, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}
		for _, id := range got {
			locked[id] = true
		}
		for _, id := range ids {
			if !locked[id] {
				return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
			}
		}
	}

	if err := fn(&pgTx{pgReader: pgReader{q: tx}, locked: locked}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

type pgTx struct {
	pgReader
	locked map[int64]bool
}

func (t *pgTx) SetBalance(ctx context.Context, accountID int64, balance money.Amount) error {
	if !t.locked[accountID] {
		return fmt.Errorf("%w: %d", ErrNotLocked, accountID)
	}
	_, err := t.q.Exec(ctx, `UPDATE accounts SET balance = $2, updated_at = now() WHERE id = $1`, accountID, int64(balance))
	return err
}

func (t *pgTx) AppendEntries(ctx context.Context, entries ...Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !t.locked[e.AccountID] {
			return nil, fmt.Errorf("%w: %d", ErrNotLocked, e.AccountID)
		}
		acct, err := t.Account(ctx, e.AccountID)
		if err != nil {
			return nil, err
		}
		if e.Currency == "" {
			e.Currency = acct.Currency
		}
		if e.Currency != acct.Currency {
			return nil, fmt.Errorf("%w: posting in %s on %s account %d", ErrCurrencyMismatch, e.Currency, acct.Currency, acct.ID)
		}
		row := t.q.QueryRow(ctx, `INSERT INTO ledger_entries (account_id, tx_id, amount, currency)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
			e.AccountID, e.TxID, int64(e.Amount), string(e.Currency))
		if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *pgTx) BeginTransaction(ctx context.Context, userID int64, kind Kind, currency money.Currency) (Transaction, error) {
	tr := Transaction{UserID: userID, Type: kind, Status: StatusPending, Currency: currency}
	row := t.q.QueryRow(ctx, `INSERT INTO transactions (user_id, type, status, currency)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		userID, string(kind), string(StatusPending), string(currency))
	if err := row.Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	return tr, nil
}

func (t *pgTx) FinishTransaction(ctx context.Context, id int64, status Status) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: cannot finish with status %q", ErrInvalidRequest, status)
	}
	cmd, err := t.q.Exec(ctx, `UPDATE transactions SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3`, id, string(status), string(StatusPending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := t.Transaction(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d", ErrTransactionClosed, id)
	}
	return nil
}

func (t *pgTx) LedgerSum(ctx context.Context, accountID int64) (money.Amount, error) {
	sums, err := t.LedgerSums(ctx, []int64{accountID})
	if err != nil {
		return 0, err
	}
	return sums[accountID], nil
}

type pgReader struct {
	q querier
}

const (
	accountColumns     = `id, user_id, currency, balance, created_at, updated_at`
	entryColumns       = `e.id, e.account_id, e.tx_id, e.amount, e.currency, e.created_at, e.updated_at`
	transactionColumns = `id, user_id, type, status, currency, created_at, updated_at`
)

func (r pgReader) Account(ctx context.Context, id int64) (Account, error) {
	acct, err := scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	return acct, err
}

func (r pgReader) AccountsByUser(ctx context.Context, userID int64) ([]Account, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Account, error) { return scanAccount(row) })
}

func (r pgReader) AllAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Account, error) { return scanAccount(row) })
}

func (r pgReader) LedgerSums(ctx context.Context, accountIDs []int64) (map[int64]money.Amount, error) {
	out := make(map[int64]money.Amount, len(accountIDs))
	for _, id := range accountIDs {
		out[id] = 0
	}
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT account_id, SUM(amount)::BIGINT FROM ledger_entries
        WHERE account_id = ANY($1) GROUP BY account_id`, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		out[id] = money.Amount(sum)
	}
	return out, rows.Err()
}

func (r pgReader) Entries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	page := filter.Page.Normalize()
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.TxID != 0 {
		conds = append(conds, "e.tx_id = "+arg(filter.TxID))
	}
	if filter.AccountID != 0 {
		conds = append(conds, "e.account_id = "+arg(filter.AccountID))
	}
	if filter.VisibleTo != 0 {
		p := arg(filter.VisibleTo)
		conds = append(conds, "(a.user_id = "+p+" OR t.user_id = "+p+")")
	}

	query := `SELECT ` + entryColumns + `
        FROM ledger_entries e
        JOIN accounts a ON a.id = e.account_id
        JOIN transactions t ON t.id = e.tx_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.id LIMIT " + arg(page.Limit) + " OFFSET " + arg(page.Offset())

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) { return scanEntry(row) })
}

func (r pgReader) Transaction(ctx context.Context, id int64) (Transaction, error) {
	tr, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	return tr, err
}

func (r pgReader) Transactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	page := filter.Page.Normalize()
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{filter.UserID}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset())
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transaction, error) { return scanTransaction(row) })
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a        Account
		currency string
		balance  int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &currency, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	a.Currency = money.Currency(currency)
	a.Balance = money.Amount(balance)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e        Entry
		currency string
		amount   int64
	)
	if err := row.Scan(&e.ID, &e.AccountID, &e.TxID, &amount, &currency, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	e.Currency = money.Currency(currency)
	e.Amount = money.Amount(amount)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t                      Transaction
		kind, status, currency string
	)
	if err := row.Scan(&t.ID, &t.UserID, &kind, &status, &currency, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	t.Type = Kind(kind)
	t.Status = Status(status)
	t.Currency = money.Currency(currency)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}
