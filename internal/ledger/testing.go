package ledger

import "github.com/congo-pay/bank_ledger/internal/money"

// OverwriteCachedBalance is a test helper that changes an in-memory account's
// cached balance without posting, simulating drift between the registry and
// the ledger.
func OverwriteCachedBalance(s Store, accountID int64, balance money.Amount) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.state.Lock()
		defer mem.state.Unlock()
		acct := mem.accounts[accountID]
		acct.Balance = balance
		mem.accounts[accountID] = acct
	}
}
