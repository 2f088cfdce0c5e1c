// Package weather fetches multi-day agricultural forecasts from the
// open-meteo forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	commonhttp "github.com/dark-devil9/Krishi-Mitra/internal/common/http"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

// Daily variables requested from the forecast endpoint. Soil and
// evapotranspiration fields feed irrigation and spray advice.
var dailyParams = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"relative_humidity_2m_mean",
	"precipitation_sum",
	"precipitation_probability_max",
	"wind_speed_10m_max",
	"shortwave_radiation_sum",
	"et0_fao_evapotranspiration",
	"soil_temperature_0_to_7cm_mean",
	"soil_moisture_0_to_7cm_mean",
}

type Client struct {
	baseURL      string
	timezone     string
	forecastDays int
	timeout      time.Duration
	httpClient   *commonhttp.Client
	logger       logger.Logger
}

func NewClient(cfg *config.Config, log logger.Logger) *Client {
	timeout := time.Duration(cfg.APIs.Weather.Timeout) * time.Millisecond
	return &Client{
		baseURL:      strings.TrimRight(cfg.APIs.Weather.BaseURL, "/"),
		timezone:     cfg.APIs.Weather.Timezone,
		forecastDays: cfg.APIs.Weather.ForecastDays,
		timeout:      timeout,
		httpClient:   commonhttp.NewClient(timeout),
		logger:       log,
	}
}

type wireDaily struct {
	Time               []string  `json:"time"`
	TempMax            []float64 `json:"temperature_2m_max"`
	TempMin            []float64 `json:"temperature_2m_min"`
	HumidityMean       []float64 `json:"relative_humidity_2m_mean"`
	PrecipitationSum   []float64 `json:"precipitation_sum"`
	PrecipProbMax      []float64 `json:"precipitation_probability_max"`
	WindMax            []float64 `json:"wind_speed_10m_max"`
	RadiationSum       []float64 `json:"shortwave_radiation_sum"`
	Evapotranspiration []float64 `json:"et0_fao_evapotranspiration"`
	SoilTempMean       []float64 `json:"soil_temperature_0_to_7cm_mean"`
	SoilMoistureMean   []float64 `json:"soil_moisture_0_to_7cm_mean"`
}

type wireResponse struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Daily     wireDaily `json:"daily"`
}

// Forecast fetches the daily forecast for the given coordinates. place is a
// display label carried through to the answer, not sent upstream.
func (c *Client) Forecast(ctx context.Context, place string, lat, lon float64) (*models.Forecast, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("daily", strings.Join(dailyParams, ","))
	q.Set("timezone", c.timezone)
	q.Set("forecast_days", strconv.Itoa(c.forecastDays))
	q.Set("wind_speed_unit", "kmh")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			metrics.UpstreamRequestDuration.WithLabelValues("weather", "timeout").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("forecast request: %w", errors.ErrUpstreamTimeout)
		}
		metrics.UpstreamRequestDuration.WithLabelValues("weather", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("forecast request: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestDuration.WithLabelValues("weather", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("forecast responded %d: %w", resp.StatusCode, errors.ErrUpstreamUnavailable)
	}

	var body wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues("weather", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("decode forecast response: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	metrics.UpstreamRequestDuration.WithLabelValues("weather", "ok").Observe(time.Since(start).Seconds())

	forecast, err := assemble(place, body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("forecast fetched", map[string]interface{}{
		"place": place, "days": len(forecast.Days),
	})
	return forecast, nil
}

// assemble zips the parallel daily arrays into per-day entries. Arrays that
// the upstream omitted are read as zero, but missing dates are fatal.
func assemble(place string, body wireResponse) (*models.Forecast, error) {
	n := len(body.Daily.Time)
	if n == 0 {
		return nil, fmt.Errorf("forecast response carried no days: %w", errors.ErrUpstreamUnavailable)
	}

	days := make([]models.DailyForecast, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, models.DailyForecast{
			Date:               body.Daily.Time[i],
			TempMaxC:           at(body.Daily.TempMax, i),
			TempMinC:           at(body.Daily.TempMin, i),
			HumidityMeanPct:    at(body.Daily.HumidityMean, i),
			PrecipitationMM:    at(body.Daily.PrecipitationSum, i),
			PrecipProbMaxPct:   at(body.Daily.PrecipProbMax, i),
			WindMaxKmh:         at(body.Daily.WindMax, i),
			RadiationMJ:        at(body.Daily.RadiationSum, i),
			Evapotranspiration: at(body.Daily.Evapotranspiration, i),
			SoilTempC:          at(body.Daily.SoilTempMean, i),
			SoilMoisture:       at(body.Daily.SoilMoistureMean, i),
		})
	}

	return &models.Forecast{
		Place:     place,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
		Days:      days,
	}, nil
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return 0
}
