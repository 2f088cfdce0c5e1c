// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
)

// JobHandler is what every worker package exports. Handlers complete or fail
// the job themselves; the wrapper only tracks activity, duration and panics.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// zapFieldsLogger adapts zap to the error handler's logger interface.
type zapFieldsLogger struct {
	logger *zap.Logger
}

func (l *zapFieldsLogger) Error(msg string, fields map[string]interface{}) {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	l.logger.Error(msg, zf...)
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	logger *zap.Logger,
) *CamundaWorker {
	errHandler := errors.NewErrorHandler(&zapFieldsLogger{logger: logger})

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jobClient worker.JobClient, job entities.Job) {
			start := time.Now()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
			defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

			// A panicking handler must not kill the polling goroutine; the
			// job is failed through the standard error path instead.
			defer func() {
				if r := recover(); r != nil {
					metrics.WorkerJobsFailed.WithLabelValues(taskType, "PANIC").Inc()
					errHandler.HandleJobError(context.Background(), jobClient, job,
						fmt.Errorf("worker %s panicked: %v", taskType, r))
				}
			}()

			handler.Handle(jobClient, job)

			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", zap.String("taskType", w.taskType))
}

// Stop closes the job worker. The shared Zeebe client stays open; the
// manager owns its lifecycle.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
