// internal/workers/assistant/build-answer/models.go
package buildanswer

import "github.com/dark-devil9/Krishi-Mitra/internal/models"

// Input is the union of the upstream stages' outputs. ErrorCode carries a
// business outcome (NO_DATA_FOUND, GEOCODING_FAILED, ...) from a stage that
// completed without data.
type Input struct {
	Intent     string                   `json:"intent"`
	Location   models.ResolvedLocation  `json:"location"`
	Commodity  models.ResolvedCommodity `json:"commodity"`
	Insight    *models.PriceInsight     `json:"insight,omitempty"`
	Forecast   *models.Forecast         `json:"forecast,omitempty"`
	ErrorCode  string                   `json:"errorCode,omitempty"`
	WindowDays int                      `json:"windowDays,omitempty"`
}

type Output struct {
	Answer models.Answer `json:"answer"`
}
