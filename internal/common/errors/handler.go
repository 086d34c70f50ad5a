// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// BPMNError is what a job worker throws back to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return "BPMNError[" + e.Code + "]: " + e.Message
}

// ToErrorVariables returns the variables attached to the thrown error.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError maps a StandardError one-to-one onto a BPMN error code.
// userMessage is the text the flow should display.
func ConvertToBPMNError(stdErr *StandardError, userMessage string) *BPMNError {
	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if stdErr.HTTPStatus != 0 {
		vars["httpStatus"] = stdErr.HTTPStatus
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        userMessage,
		Details:        stdErr.Details,
		ErrorVariables: vars,
	}
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler throws job failures as BPMN errors. Dashboard jobs are never
// retried by the worker; re-running is a decision of the process model.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError normalizes err, logs it and throws it on the job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error, fallback string) {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr, UserMessage(stdErr, fallback))

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"workflowInstance": job.ProcessInstanceKey,
	})

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			h.send(ctx, withVars)
			return
		}
	}

	// Fallback: throw without variables.
	h.send(ctx, cmd)
}

func (h *ErrorHandler) send(ctx context.Context, cmd interface {
	Send(context.Context) (*pb.ThrowErrorResponse, error)
}) {
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
	}
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
