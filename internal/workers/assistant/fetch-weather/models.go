// internal/workers/assistant/fetch-weather/models.go
package fetchweather

import "github.com/dark-devil9/Krishi-Mitra/internal/models"

type Input struct {
	Place string `json:"place"`
	State string `json:"state"`
}

// Output carries either a forecast or a business error code. A place the
// geocoder does not know is a branchable outcome, not a job failure.
type Output struct {
	Found     bool             `json:"found"`
	Forecast  *models.Forecast `json:"forecast,omitempty"`
	ErrorCode string           `json:"errorCode,omitempty"`
}
