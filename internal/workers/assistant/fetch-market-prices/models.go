// internal/workers/assistant/fetch-market-prices/models.go
package fetchmarketprices

import "github.com/dark-devil9/Krishi-Mitra/internal/models"

type Input struct {
	State     string `json:"state"`
	Commodity string `json:"commodity"`
}

// Output carries either an insight or a business error code. An empty result
// set is a business outcome the flow branches on, not a job failure.
type Output struct {
	Found      bool                 `json:"found"`
	Insight    *models.PriceInsight `json:"insight,omitempty"`
	ErrorCode  string               `json:"errorCode,omitempty"`
	WindowDays int                  `json:"windowDays,omitempty"`
}
