// Package dto defines data transfer objects for the Yahoo Finance quote API responses.
package dto

// QuoteResponse represents the JSON response from the v7/finance/quote endpoint.
type QuoteResponse struct {
	QuoteResponse struct {
		Result []QuoteResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"quoteResponse"`
}

// QuoteResult is one quoted instrument in the response.
// RegularMarketPrice is absent for symbols without a tradeable price.
type QuoteResult struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	FullExchangeName   string   `json:"fullExchangeName"`
	Exchange           string   `json:"exchange"`
	Currency           string   `json:"currency"`
	QuoteType          string   `json:"quoteType"`
}

// APIError is the provider-side error object.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
