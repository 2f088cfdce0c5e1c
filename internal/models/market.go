// internal/models/market.go
package models

import "time"

// PriceRecord is one raw observation from the market price source. Records are
// immutable after fetch; state and commodity are canonical lower-case.
type PriceRecord struct {
	Commodity  string    `json:"commodity"`
	Market     string    `json:"market"`
	District   string    `json:"district,omitempty"`
	State      string    `json:"state"`
	Date       time.Time `json:"date"`
	MinPrice   float64   `json:"minPrice"`   // per quintal
	MaxPrice   float64   `json:"maxPrice"`   // per quintal
	ModalPrice float64   `json:"modalPrice"` // per quintal
}

// PriceInsight is the derived aggregation result: deduplicated records (one
// per market, newest kept), ordered by date descending, with the modal-price
// extremes and the market(s) achieving them. Never persisted.
type PriceInsight struct {
	Commodity  string        `json:"commodity"`
	State      string        `json:"state"`
	WindowDays int           `json:"windowDays"`
	Records    []PriceRecord `json:"records"`
	MinModal   float64       `json:"minModal"`
	MaxModal   float64       `json:"maxModal"`
	MinMarkets []string      `json:"minMarkets"`
	MaxMarkets []string      `json:"maxMarkets"`
}
