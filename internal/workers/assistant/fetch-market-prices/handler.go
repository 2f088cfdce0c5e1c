// internal/workers/assistant/fetch-market-prices/handler.go
package fetchmarketprices

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
)

const (
	TaskType = "fetch-market-prices"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
	ErrMandiFailed  = errors.New("MANDI_API_FAILED")
	ErrMandiTimeout = errors.New("MANDI_API_TIMEOUT")
)

// PriceAggregator is the market pipeline: fetch, re-filter, dedup, extremes.
type PriceAggregator interface {
	Aggregate(ctx context.Context, state, commodity string) (*models.PriceInsight, error)
}

type Handler struct {
	config     *Config
	aggregator PriceAggregator
	logger     logger.Logger
}

func NewHandler(config *Config, aggregator PriceAggregator, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		aggregator: aggregator,
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
		if errors.Is(err, ErrMandiTimeout) {
			retries = 2
		} else if errors.Is(err, ErrMandiFailed) {
			retries = int32(h.config.MaxRetries)
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.State == "" || input.Commodity == "" {
		return nil, fmt.Errorf("%w: state and commodity are required", ErrInvalidInput)
	}

	insight, err := h.aggregator.Aggregate(ctx, input.State, input.Commodity)
	if err != nil {
		var noData *apperrors.NoDataError
		switch {
		case errors.As(err, &noData):
			h.logger.Info("no price data in window", map[string]interface{}{
				"state":     noData.State,
				"commodity": noData.Commodity,
			})
			return &Output{Found: false, ErrorCode: string(apperrors.ErrCodeNoDataFound), WindowDays: noData.WindowDays}, nil
		case errors.Is(err, apperrors.ErrUpstreamTimeout):
			return nil, fmt.Errorf("%w: %v", ErrMandiTimeout, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMandiFailed, err)
		}
	}

	h.logger.Info("prices aggregated", map[string]interface{}{
		"state":     insight.State,
		"commodity": insight.Commodity,
		"markets":   len(insight.Records),
		"minModal":  insight.MinModal,
		"maxModal":  insight.MaxModal,
	})

	return &Output{Found: true, Insight: insight}, nil
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
	case errors.Is(err, ErrMandiTimeout):
		errorCode = "MANDI_API_TIMEOUT"
	case errors.Is(err, ErrMandiFailed):
		errorCode = "MANDI_API_FAILED"
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
