package fulfillment

import (
	"context"
	"encoding/json"

	"incentiva-engine/pkg/taskname"
	"incentiva-engine/services/submission"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskHandler consumes the settlement tasks and drives them through the
// engine. Idempotent replays resolve inside ApplyValidationOutcome, so every
// handler error returned here is safe to let asynq retry.
type TaskHandler struct {
	service *Service
}

func NewTaskHandler(service *Service) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(taskname.SubmissionValidated, h.handle(submission.StatusValidated))
	mux.HandleFunc(taskname.SubmissionRejected, h.handle(submission.StatusRejected))
	mux.HandleFunc(taskname.SubmissionConflict, h.handle(submission.StatusManualConflict))
}

func (h *TaskHandler) handle(outcome submission.Status) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SettlementPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			zap.L().Error("malformed settlement payload",
				zap.String("task", t.Type()),
				zap.Error(err),
			)
			// Retrying a malformed payload can never succeed.
			return asynq.SkipRetry
		}

		_, err := h.service.ApplyValidationOutcome(ctx, payload.SubmissionID, outcome)
		return err
	}
}
