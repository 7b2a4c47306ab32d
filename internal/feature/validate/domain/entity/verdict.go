package entity

// Reason explains why a symbol was classified as delisted.
type Reason string

const (
	// ReasonNoPrice: the provider knows the symbol but reports no tradeable price.
	ReasonNoPrice Reason = "no_price"
	// ReasonUnrecognizedExchange: the symbol trades on a venue outside the allow-list.
	ReasonUnrecognizedExchange Reason = "unrecognized_exchange"
	// ReasonSchemaValidation: the provider payload failed shape validation after retries.
	ReasonSchemaValidation Reason = "schema_validation"
)

// Verdict is the outcome of one validation attempt for a symbol.
// When Active is true, Price/Exchange/Currency carry the observed quote.
// When Active is false, Reason explains the delisting classification.
type Verdict struct {
	Symbol   string
	Active   bool
	Price    *float64
	Exchange string
	Currency string
	Reason   Reason
}
