// internal/workers/alerts/generate-alerts/handler.go
package generatealerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
)

const (
	TaskType = "generate-alerts"
)

var (
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrAlertBatchFailed = errors.New("ALERT_BATCH_FAILED")
)

// AlertRunner executes one alert batch. Satisfied by assistant.AlertService.
type AlertRunner interface {
	Run(ctx context.Context) (assistant.AlertRunSummary, error)
}

type Handler struct {
	config *Config
	alerts AlertRunner
	logger logger.Logger
}

func NewHandler(config *Config, alerts AlertRunner, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		alerts: alerts,
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
		if errors.Is(err, ErrAlertBatchFailed) {
			retries = int32(h.config.MaxRetries)
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute runs the batch. Per-user failures are already absorbed inside the
// run; only a failure to list subscribers fails the job.
func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	summary, err := h.alerts.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlertBatchFailed, err)
	}

	h.logger.Info("alert batch completed", map[string]interface{}{
		"subscribers": summary.Subscribers,
		"sent":        summary.Sent,
		"skipped":     summary.Skipped,
		"failed":      summary.Failed,
	})

	return &Output{
		Subscribers: summary.Subscribers,
		Sent:        summary.Sent,
		Skipped:     summary.Skipped,
		Failed:      summary.Failed,
	}, nil
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
	case errors.Is(err, ErrAlertBatchFailed):
		errorCode = "ALERT_BATCH_FAILED"
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
