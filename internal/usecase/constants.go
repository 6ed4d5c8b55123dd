package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// BalanceCacheTTL is how long a computed ledger balance may be served from
	// cache. Every write in scope invalidates the key anyway; the TTL only
	// bounds staleness if an invalidation is lost.
	BalanceCacheTTL = 30 * time.Second
)
