// internal/models/weather.go
package models

// DailyForecast is one day of agricultural weather, normalized from the
// forecast source. Soil and radiation fields matter for spray/irrigation
// advice and are requested explicitly.
type DailyForecast struct {
	Date              string  `json:"date"` // YYYY-MM-DD
	TempMaxC          float64 `json:"tempMaxC"`
	TempMinC          float64 `json:"tempMinC"`
	HumidityMeanPct   float64 `json:"humidityMeanPct"`
	PrecipitationMM   float64 `json:"precipitationMm"`
	PrecipProbMaxPct  float64 `json:"precipProbMaxPct"`
	WindMaxKmh        float64 `json:"windMaxKmh"`
	RadiationMJ       float64 `json:"radiationMj"`
	Evapotranspiration float64 `json:"evapotranspirationMm"`
	SoilTempC         float64 `json:"soilTempC"`     // 0-7cm mean
	SoilMoisture      float64 `json:"soilMoisture"`  // 0-7cm mean, m3/m3
}

// Forecast is an ordered (ascending date) multi-day forecast for one place.
type Forecast struct {
	Place     string          `json:"place"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Days      []DailyForecast `json:"days"`
}

// Tomorrow returns the second entry when present, matching the convention of
// answering "will it rain tomorrow" questions from index 1.
func (f *Forecast) Tomorrow() (DailyForecast, bool) {
	if f == nil || len(f.Days) < 2 {
		return DailyForecast{}, false
	}
	return f.Days[1], true
}
