// internal/workers/assistant/fetch-weather/handler.go
package fetchweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/geocode"
)

const (
	TaskType = "fetch-weather"
)

var (
	ErrInvalidInput   = errors.New("INVALID_INPUT")
	ErrWeatherFailed  = errors.New("WEATHER_API_FAILED")
	ErrWeatherTimeout = errors.New("WEATHER_API_TIMEOUT")
)

// PlaceSource resolves free-text places to coordinates.
type PlaceSource interface {
	Lookup(ctx context.Context, place string) (*geocode.Place, error)
}

// ForecastSource returns a multi-day forecast for coordinates.
type ForecastSource interface {
	Forecast(ctx context.Context, place string, lat, lon float64) (*models.Forecast, error)
}

type Handler struct {
	config    *Config
	places    PlaceSource
	forecasts ForecastSource
	logger    logger.Logger
}

func NewHandler(config *Config, places PlaceSource, forecasts ForecastSource, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		places:    places,
		forecasts: forecasts,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: %v", ErrInvalidInput, err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrWeatherTimeout) {
			retries = 2
		} else if errors.Is(err, ErrWeatherFailed) {
			retries = int32(h.config.MaxRetries)
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute geocodes the place and fetches the forecast. The more specific
// place is tried before the state.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	place := input.Place
	if place == "" {
		place = input.State
	}
	if place == "" {
		return nil, fmt.Errorf("%w: place or state is required", ErrInvalidInput)
	}

	hit, err := h.places.Lookup(ctx, place)
	if err != nil && input.State != "" && place != input.State {
		hit, err = h.places.Lookup(ctx, input.State)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrUnresolvedLocation) {
			h.logger.Info("place unknown to geocoder", map[string]interface{}{"place": place})
			return &Output{Found: false, ErrorCode: string(apperrors.ErrCodeGeocodingFailed)}, nil
		}
		return nil, h.mapUpstreamError(err)
	}

	forecast, err := h.forecasts.Forecast(ctx, hit.Name, hit.Latitude, hit.Longitude)
	if err != nil {
		return nil, h.mapUpstreamError(err)
	}

	h.logger.Info("forecast fetched", map[string]interface{}{
		"place": hit.Name,
		"days":  len(forecast.Days),
	})

	return &Output{Found: true, Forecast: forecast}, nil
}

func (h *Handler) mapUpstreamError(err error) error {
	if errors.Is(err, apperrors.ErrUpstreamTimeout) {
		return fmt.Errorf("%w: %v", ErrWeatherTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrWeatherFailed, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	switch {
	case errors.Is(err, ErrInvalidInput):
		errorCode = "INVALID_INPUT"
	case errors.Is(err, ErrWeatherTimeout):
		errorCode = "WEATHER_API_TIMEOUT"
	case errors.Is(err, ErrWeatherFailed):
		errorCode = "WEATHER_API_FAILED"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
