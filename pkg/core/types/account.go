package types

// AccountState is the per-account sequence number and balance observed after
// applying some block's transactions.
type AccountState struct {
	Nonce   uint32
	Balance Amount
}

// StateMap is a snapshot of every account touched as of a given block,
// keyed by address. Lookups for unseen addresses default to the zero value
// (nonce 0, balance 0), matching the account model: an address that has
// never sent or received is implicitly (0, 0).
type StateMap map[Address]AccountState

// Get returns the account state for addr, or the zero value if unseen.
func (m StateMap) Get(addr Address) AccountState {
	return m[addr]
}

// Clone returns an independent copy of the state map, so a worker can
// mutate a working copy without affecting the map another goroutine reads.
func (m StateMap) Clone() StateMap {
	out := make(StateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TxOutcome classifies the result of attempting to apply a transaction to
// an account state snapshot.
type TxOutcome int

const (
	// TxAccepted: the transaction was applied; the state map was mutated.
	TxAccepted TxOutcome = iota
	// TxStale: the nonce is at or behind the account's current nonce.
	// Permanently stale — evict from the mempool.
	TxStale
	// TxLeft: value exceeds balance, or the nonce is ahead of the next
	// expected one. Neither accepted nor stale — leave in the mempool
	// for a future block.
	TxLeft
)

// Apply attempts to apply tx against the sender's entry in m. On
// TxAccepted, m is mutated: the sender's nonce advances and balance
// debits, the receiver's balance credits. Any other outcome leaves m
// unchanged.
//
// A transaction is accepted only if its nonce is exactly one past the
// sender's current nonce and its value does not exceed the sender's
// balance. Otherwise, it is stale (evict) iff its nonce is at or behind
// the sender's current nonce; a nonce further ahead is left pending.
func (m StateMap) Apply(tx Transaction) TxOutcome {
	s := m.Get(tx.Sender)
	if tx.Value > s.Balance || tx.Nonce != s.Nonce+1 {
		if tx.Nonce <= s.Nonce {
			return TxStale
		}
		return TxLeft
	}
	m[tx.Sender] = AccountState{Nonce: s.Nonce + 1, Balance: s.Balance - tx.Value}
	// Read the receiver only after the sender write above: when
	// sender == receiver this picks up the debited balance and advanced
	// nonce, so a self-transfer nets out to (s.Nonce+1, s.Balance) instead
	// of conjuring Value out of nothing.
	r := m.Get(tx.Receiver)
	m[tx.Receiver] = AccountState{Nonce: r.Nonce, Balance: r.Balance + tx.Value}
	return TxAccepted
}
