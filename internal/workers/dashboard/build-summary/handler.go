package buildsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loan-dashboard/internal/common/camunda"
	"loan-dashboard/internal/common/config"
	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/common/metrics"
	"loan-dashboard/internal/common/observability"
	"loan-dashboard/internal/common/validation"
	"loan-dashboard/internal/dashboard"
	"loan-dashboard/internal/models"
)

const TaskType = "dashboard-build-summary"

var inputSchema = validation.MustCompile(validation.SummaryInputSchema)

type Handler struct {
	config     *Config
	logger     logger.Logger
	camunda    *camunda.Client
	gateway    dashboard.Gateway
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	jobWorker  worker.JobWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	Gateway       dashboard.Gateway
	CustomConfig  *Config
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("%s requires a loan service gateway", TaskType)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:     workerConfig,
		logger:     loggerInstance,
		camunda:    opts.Camunda,
		gateway:    opts.Gateway,
		errHandler: errors.NewErrorHandler(loggerInstance),
		obs:        opts.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	h.logger.Info("Building dashboard summary", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobProcessed(ctx, TaskType, metrics.OutcomeSuccess)
			h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), metrics.OutcomeSuccess)
			return
		}
	}

	span.RecordError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, metrics.OutcomeFailure)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), metrics.OutcomeFailure)
	h.errHandler.HandleJobError(ctx, client, job, err, dashboard.MsgLoadFailed)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidCommandError("Failed to parse job variables", err.Error())
	}

	result := inputSchema.ValidateInput(variables)
	if !result.Valid {
		return nil, errors.NewInvalidCommandError("Input validation failed",
			fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	input := &Input{
		UserID: stringVar(variables["userId"]),
		Role:   stringVar(variables["role"]),
	}
	if q, ok := variables["searchQuery"].(string); ok {
		input.SearchQuery = q
	}
	if f, ok := variables["statusFilter"].(string); ok {
		input.StatusFilter = f
	}
	if err := dashboard.ValidateStatusFilter(input.StatusFilter); err != nil {
		return nil, err
	}
	return input, nil
}

// stringVar renders a decoded job variable as text. Numeric user ids arrive
// as float64.
func stringVar(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	}
	return ""
}

// Execute loads the principal's applications through a throwaway view and
// summarizes them. A failed load is returned as the error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	view := dashboard.NewView(dashboard.ViewOptions{
		Principal: &models.Principal{ID: input.UserID, Role: input.Role},
		Gateway:   h.gateway,
		Logger:    h.logger,
	})
	if err := view.Mount(ctx); err != nil {
		return nil, err
	}
	if err := view.SetStatusFilter(input.StatusFilter); err != nil {
		return nil, err
	}
	view.SetSearchQuery(input.SearchQuery)

	snap := view.Snapshot()
	return &Output{
		Phase:                snap.Phase,
		TotalApplications:    snap.TotalApplications,
		FilteredApplications: len(snap.Applications),
		StatusDistribution:   snap.StatusDistribution,
		MonthlyTrend:         snap.MonthlyTrend,
		AmountByPurpose:      snap.AmountByPurpose,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		h.errHandler.HandleJobError(ctx, client, job, err, dashboard.MsgLoadFailed)
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Dashboard summary completed", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"total":         output.TotalApplications,
		"filtered":      output.FilteredApplications,
		"statusBuckets": len(output.StatusDistribution),
	})
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s requires a camunda client", TaskType)
	}

	jobWorker, err := camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
		Handler:       h.Handle,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s worker: %w", TaskType, err)
	}
	h.jobWorker = jobWorker

	h.logger.Info("Dashboard summary worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
	})
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}
