// internal/workers/assistant/build-answer/handler.go
package buildanswer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/compose"
	apperrors "github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

const (
	TaskType = "build-answer"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

type Handler struct {
	config   *Config
	composer *compose.Composer
	logger   logger.Logger
}

func NewHandler(config *Config, tables *registry.Tables, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		composer: compose.NewComposer(tables),
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
		h.failJob(client, job, err, 0)
		return
	}

	h.completeJob(client, job, output)
}

// execute composes the final answer. Composition is total: whatever mix of
// data and error codes arrives, the output is a well-formed Answer.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ans := h.composer.Compose(compose.Inputs{
		Intent:    models.Intent(input.Intent),
		Location:  input.Location,
		Commodity: input.Commodity,
		Insight:   input.Insight,
		Forecast:  input.Forecast,
		Err:       errorForCode(input),
	})
	ans.RequestID = uuid.NewString()

	h.logger.Info("answer composed", map[string]interface{}{
		"requestId": ans.RequestID,
		"intent":    input.Intent,
		"errorCode": ans.ErrorCode,
	})

	return &Output{Answer: ans}, nil
}

// errorForCode rehydrates an upstream stage's business error code into the
// error value the composer routes on.
func errorForCode(input *Input) error {
	switch apperrors.ErrorCode(input.ErrorCode) {
	case apperrors.ErrCodeNoDataFound:
		return &apperrors.NoDataError{
			State:      input.Location.State,
			Commodity:  input.Commodity.Name,
			WindowDays: input.WindowDays,
		}
	case apperrors.ErrCodeMandiTimeout, apperrors.ErrCodeWeatherTimeout, apperrors.ErrCodeGeocodingTimeout:
		return apperrors.ErrUpstreamTimeout
	case apperrors.ErrCodeMandiAPIFailed, apperrors.ErrCodeWeatherAPIFailed, apperrors.ErrCodeGeocodingFailed:
		return apperrors.ErrUpstreamUnavailable
	default:
		return nil
	}
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
	if errors.Is(err, ErrInvalidInput) {
		errorCode = "INVALID_INPUT"
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
