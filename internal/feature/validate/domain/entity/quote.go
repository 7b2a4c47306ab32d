// Package entity defines the domain models for the validate feature.
package entity

// Quote is one provider response for a symbol lookup.
// Price is nil when the provider returned a well-formed payload without a
// tradeable regular-market price.
type Quote struct {
	Symbol   string
	Price    *float64
	Exchange string
	Currency string
}
