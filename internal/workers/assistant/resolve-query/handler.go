// internal/workers/assistant/resolve-query/handler.go
package resolvequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/commodity"
	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/location"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

const (
	TaskType = "resolve-query"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

// ProfileSource defaults the location for users whose query mentioned none.
// Optional; a nil source skips the defaulting.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Handler struct {
	config      *Config
	locations   *location.Resolver
	commodities *commodity.Resolver
	profiles    ProfileSource
	logger      logger.Logger
}

func NewHandler(config *Config, tables *registry.Tables, geocoder location.Geocoder, profiles ProfileSource, log logger.Logger) *Handler {
	lg := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:      config,
		locations:   location.NewResolver(tables, geocoder, config.GeocodeTimeout, lg),
		commodities: commodity.NewResolver(tables, lg),
		profiles:    profiles,
		logger:      lg,
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

// execute resolves both entities. Resolution is total: unresolvable spans
// come back as tier-unresolved values, never as errors, so the BPMN gateway
// can branch on the tiers.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	locSpan := input.LocationSpan
	if locSpan == "" && input.UserID != "" && h.profiles != nil {
		if p, err := h.profiles.Get(ctx, input.UserID); err == nil {
			if p.Pincode != "" {
				locSpan = p.Pincode
			} else {
				locSpan = p.State
			}
		} else {
			h.logger.Warn("profile lookup for location default failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		}
	}

	output := &Output{
		Location:  h.locations.Resolve(ctx, locSpan),
		Commodity: h.commodities.Resolve(input.CommoditySpan),
	}

	h.logger.Info("query resolved", map[string]interface{}{
		"state":         output.Location.State,
		"locationTier":  int(output.Location.Tier),
		"commodity":     output.Commodity.Name,
		"commodityTier": int(output.Commodity.Tier),
	})

	return output, nil
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
