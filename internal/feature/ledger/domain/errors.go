// Package domain defines domain-level errors for the ledger feature.
package domain

import "errors"

// Domain errors for ledger operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrTickerNotFound indicates that no ledger row exists for the given symbol.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrInvalidStatus indicates that an upsert was attempted with an unknown
	// classification status.
	ErrInvalidStatus = errors.New("invalid ticker status")
)
