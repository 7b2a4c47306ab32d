// Package entity defines the domain models for the sweep feature.
package entity

import "time"

// Checkpoint is the resumption state of one sweep over the symbol domain.
// It is written exclusively by the batch runner and read once at startup.
// CurrentIndex is the next unprocessed enumerator index; deleting the
// checkpoint externally forces the next run to start fresh.
type Checkpoint struct {
	CurrentIndex        int64     `json:"current_index"`
	Total               int64     `json:"total"`
	Processed           int64     `json:"processed"`
	ActiveCount         int64     `json:"active_count"`
	DelistedCount       int64     `json:"delisted_count"`
	Timestamp           time.Time `json:"timestamp"`
	LastProcessedSymbol string    `json:"last_processed_symbol"`
}
