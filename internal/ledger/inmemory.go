package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/congo-pay/bank_ledger/internal/money"
)

type ownerKey struct {
	userID   int64
	currency money.Currency
}

// inMemoryStore keeps committed state behind a RWMutex and serializes writers
// per account. A unit of work stages its changes privately and applies them in
// one short critical section, so readers never see half a posting set.
type inMemoryStore struct {
	state        sync.RWMutex
	accounts     map[int64]Account
	byOwner      map[ownerKey]int64
	entries      []Entry
	entriesByAcc map[int64][]int
	transactions map[int64]Transaction
	txOrder      []int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	nextAccount atomic.Int64
	nextEntry   atomic.Int64
	nextTx      atomic.Int64

	now func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and local development.
func NewInMemory() Store {
	return &inMemoryStore{
		accounts:     make(map[int64]Account),
		byOwner:      make(map[ownerKey]int64),
		entriesByAcc: make(map[int64][]int),
		transactions: make(map[int64]Transaction),
		locks:        make(map[int64]*sync.Mutex),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *inMemoryStore) EnsureAccount(_ context.Context, userID int64, currency money.Currency) (Account, error) {
	s.state.Lock()
	defer s.state.Unlock()
	key := ownerKey{userID: userID, currency: currency}
	if id, ok := s.byOwner[key]; ok {
		return s.accounts[id], nil
	}
	now := s.now()
	acct := Account{
		ID:        s.nextAccount.Add(1),
		UserID:    userID,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[acct.ID] = acct
	s.byOwner[key] = acct.ID
	return acct, nil
}

func (s *inMemoryStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state.RLock()
	defer s.state.RUnlock()
	return fn(memReader{s: s})
}

func (s *inMemoryStore) Update(ctx context.Context, accountIDs []int64, fn func(tx Tx) error) error {
	ids := uniqueSorted(accountIDs)

	s.state.RLock()
	for _, id := range ids {
		if _, ok := s.accounts[id]; !ok {
			s.state.RUnlock()
			return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
	}
	s.state.RUnlock()

	unlock := s.lockAccounts(ids)
	defer unlock()

	tx := &memTx{
		s:        s,
		locked:   make(map[int64]bool, len(ids)),
		balances: make(map[int64]money.Amount),
		txs:      make(map[int64]Transaction),
		now:      s.now(),
	}
	for _, id := range ids {
		tx.locked[id] = true
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

// lockAccounts acquires the per-account mutexes in ascending id order so two
// units of work over the same accounts can never deadlock.
func (s *inMemoryStore) lockAccounts(ids []int64) func() {
	mus := make([]*sync.Mutex, 0, len(ids))
	s.locksMu.Lock()
	for _, id := range ids {
		mu, ok := s.locks[id]
		if !ok {
			mu = &sync.Mutex{}
			s.locks[id] = mu
		}
		mus = append(mus, mu)
	}
	s.locksMu.Unlock()

	for _, mu := range mus {
		mu.Lock()
	}
	return func() {
		for i := len(mus) - 1; i >= 0; i-- {
			mus[i].Unlock()
		}
	}
}

func (s *inMemoryStore) commit(tx *memTx) {
	s.state.Lock()
	defer s.state.Unlock()

	for id, bal := range tx.balances {
		acct := s.accounts[id]
		acct.Balance = bal
		acct.UpdatedAt = tx.now
		s.accounts[id] = acct
	}
	for _, id := range tx.txOrder {
		if _, exists := s.transactions[id]; !exists {
			s.txOrder = append(s.txOrder, id)
		}
	}
	for id, t := range tx.txs {
		s.transactions[id] = t
	}
	for _, e := range tx.entries {
		s.entriesByAcc[e.AccountID] = append(s.entriesByAcc[e.AccountID], len(s.entries))
		s.entries = append(s.entries, e)
	}
}

// The helpers below expect the caller to hold s.state.

func (s *inMemoryStore) account(id int64) (Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}
	return acct, nil
}

func (s *inMemoryStore) transaction(id int64) (Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	return t, nil
}

func (s *inMemoryStore) ledgerSum(accountID int64) money.Amount {
	var sum money.Amount
	for _, idx := range s.entriesByAcc[accountID] {
		sum += s.entries[idx].Amount
	}
	return sum
}

type memReader struct {
	s *inMemoryStore
}

func (r memReader) Account(_ context.Context, id int64) (Account, error) {
	return r.s.account(id)
}

func (r memReader) AccountsByUser(_ context.Context, userID int64) ([]Account, error) {
	out := make([]Account, 0, 2)
	for _, acct := range r.s.accounts {
		if acct.UserID == userID {
			out = append(out, acct)
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r memReader) AllAccounts(_ context.Context) ([]Account, error) {
	out := make([]Account, 0, len(r.s.accounts))
	for _, acct := range r.s.accounts {
		out = append(out, acct)
	}
	sortAccounts(out)
	return out, nil
}

func (r memReader) LedgerSums(_ context.Context, accountIDs []int64) (map[int64]money.Amount, error) {
	out := make(map[int64]money.Amount, len(accountIDs))
	for _, id := range accountIDs {
		out[id] = r.s.ledgerSum(id)
	}
	return out, nil
}

func (r memReader) Entries(_ context.Context, filter EntryFilter) ([]Entry, error) {
	page := filter.Page.Normalize()
	skip := page.Offset()
	out := make([]Entry, 0, page.Limit)
	for _, e := range r.s.entries {
		if filter.TxID != 0 && e.TxID != filter.TxID {
			continue
		}
		if filter.AccountID != 0 && e.AccountID != filter.AccountID {
			continue
		}
		if filter.VisibleTo != 0 && !r.visible(e, filter.VisibleTo) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, e)
		if len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

func (r memReader) visible(e Entry, userID int64) bool {
	if r.s.accounts[e.AccountID].UserID == userID {
		return true
	}
	return r.s.transactions[e.TxID].UserID == userID
}

func (r memReader) Transaction(_ context.Context, id int64) (Transaction, error) {
	return r.s.transaction(id)
}

func (r memReader) Transactions(_ context.Context, filter TransactionFilter) ([]Transaction, error) {
	page := filter.Page.Normalize()
	skip := page.Offset()
	out := make([]Transaction, 0, page.Limit)
	for _, id := range r.s.txOrder {
		t := r.s.transactions[id]
		if t.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, t)
		if len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

// memTx stages a unit of work. Reads fall through to committed state, which
// cannot change underneath for locked accounts.
type memTx struct {
	s        *inMemoryStore
	locked   map[int64]bool
	balances map[int64]money.Amount
	entries  []Entry
	txs      map[int64]Transaction
	txOrder  []int64
	now      time.Time
}

func (t *memTx) Account(_ context.Context, id int64) (Account, error) {
	t.s.state.RLock()
	acct, err := t.s.account(id)
	t.s.state.RUnlock()
	if err != nil {
		return Account{}, err
	}
	if bal, ok := t.balances[id]; ok {
		acct.Balance = bal
		acct.UpdatedAt = t.now
	}
	return acct, nil
}

func (t *memTx) SetBalance(_ context.Context, accountID int64, balance money.Amount) error {
	if !t.locked[accountID] {
		return fmt.Errorf("%w: %d", ErrNotLocked, accountID)
	}
	t.balances[accountID] = balance
	return nil
}

func (t *memTx) AppendEntries(ctx context.Context, entries ...Entry) ([]Entry, error) {
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
		if _, err := t.lookupTransaction(e.TxID); err != nil {
			return nil, err
		}
		e.ID = t.s.nextEntry.Add(1)
		e.CreatedAt = t.now
		e.UpdatedAt = t.now
		out = append(out, e)
	}
	t.entries = append(t.entries, out...)
	return out, nil
}

func (t *memTx) BeginTransaction(_ context.Context, userID int64, kind Kind, currency money.Currency) (Transaction, error) {
	tr := Transaction{
		ID:        t.s.nextTx.Add(1),
		UserID:    userID,
		Type:      kind,
		Status:    StatusPending,
		Currency:  currency,
		CreatedAt: t.now,
		UpdatedAt: t.now,
	}
	t.txs[tr.ID] = tr
	t.txOrder = append(t.txOrder, tr.ID)
	return tr, nil
}

func (t *memTx) FinishTransaction(_ context.Context, id int64, status Status) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: cannot finish with status %q", ErrInvalidRequest, status)
	}
	tr, err := t.lookupTransaction(id)
	if err != nil {
		return err
	}
	if tr.Status != StatusPending {
		return fmt.Errorf("%w: %d is %s", ErrTransactionClosed, id, tr.Status)
	}
	tr.Status = status
	tr.UpdatedAt = t.now
	t.txs[id] = tr
	return nil
}

func (t *memTx) LedgerSum(_ context.Context, accountID int64) (money.Amount, error) {
	t.s.state.RLock()
	if _, err := t.s.account(accountID); err != nil {
		t.s.state.RUnlock()
		return 0, err
	}
	sum := t.s.ledgerSum(accountID)
	t.s.state.RUnlock()
	for _, e := range t.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (t *memTx) lookupTransaction(id int64) (Transaction, error) {
	if tr, ok := t.txs[id]; ok {
		return tr, nil
	}
	t.s.state.RLock()
	defer t.s.state.RUnlock()
	return t.s.transaction(id)
}

func uniqueSorted(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortAccounts(accts []Account) {
	sort.Slice(accts, func(i, j int) bool { return accts[i].ID < accts[j].ID })
}
