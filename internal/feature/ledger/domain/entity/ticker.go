// Package entity defines the domain models for the classification ledger.
package entity

import "time"

// Status is the classification state of a ticker symbol.
type Status string

const (
	// StatusUnvalidated marks a symbol that exists in the ledger but has
	// never been checked against the market-data provider. It is kept
	// distinct from StatusDelisted so that generated-but-unchecked symbols
	// are never reported as confirmed delistings.
	StatusUnvalidated Status = "unvalidated"
	// StatusActive marks a symbol with a tradeable price on a recognized exchange.
	StatusActive Status = "active"
	// StatusDelisted marks a symbol the provider reports as not tradeable.
	StatusDelisted Status = "delisted"
)

// Valid reports whether s is one of the known classification states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnvalidated, StatusActive, StatusDelisted:
		return true
	}
	return false
}

// DefaultCurrency is assumed when the provider does not report a currency.
const DefaultCurrency = "USD"

// Ticker represents one classified symbol in the ledger.
// Price and Exchange are only meaningful when Status is StatusActive;
// for a delisted symbol Exchange may carry the delisting reason instead.
type Ticker struct {
	Symbol      string
	Status      Status
	Price       *float64
	Exchange    *string
	Currency    string
	LastChecked *time.Time
}

// Stats summarizes the ledger contents. Validated counts rows whose status
// reflects a recorded validation attempt (active or delisted), which
// distinguishes "checked" from "row exists but never validated".
type Stats struct {
	Total       int64
	Active      int64
	Delisted    int64
	Unvalidated int64
	Validated   int64
}
