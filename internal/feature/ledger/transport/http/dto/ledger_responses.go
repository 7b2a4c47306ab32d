// Package dto defines data transfer objects for the ledger HTTP API.
package dto

// StatsResponse summarizes the ledger for API clients.
type StatsResponse struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Delisted    int64 `json:"delisted"`
	Unvalidated int64 `json:"unvalidated"`
	Validated   int64 `json:"validated"`
}

// TickerItem represents one classified symbol in the API response.
// Price, exchange and last_checked are omitted when not recorded.
type TickerItem struct {
	Symbol      string   `json:"symbol"`
	Status      string   `json:"status"`
	Price       *float64 `json:"price,omitempty"`
	Exchange    *string  `json:"exchange,omitempty"`
	Currency    string   `json:"currency"`
	LastChecked string   `json:"last_checked,omitempty"`
}
