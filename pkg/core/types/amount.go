package types

// Amount represents a quantity of value held by an account. The chain has no
// subdivision or fee market: it is a plain account balance unit.
type Amount uint32
