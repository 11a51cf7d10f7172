package httpapi

import (
	"encoding/json"
	"net/http"

	"incentiva-engine/pkg/errutil"
	"incentiva-engine/pkg/taskname"
	"incentiva-engine/services/fulfillment"
	"incentiva-engine/services/submission"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func (h *Handler) CreateSubmission(c *gin.Context) {
	var in submission.CreateSubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	created, err := h.submissions.Create(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetSubmission(c *gin.Context) {
	out, err := h.submissions.Get(c.Request.Context(), c.Param("submission_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListMemberSubmissions(c *gin.Context) {
	out, err := h.submissions.ListForMember(c.Request.Context(),
		c.Param("member_id"), c.Param("campaign_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": out})
}

type settleRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Reason  string `json:"reason"`
	Async   bool   `json:"async"`
}

// SettleSubmission is the callback the validation workflow posts terminal
// outcomes to. With async set the settlement is enqueued on the critical
// queue and the engine applies it from the task handler.
func (h *Handler) SettleSubmission(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	outcome, err := submission.ParseStatus(req.Outcome)
	if err != nil {
		c.Error(err)
		return
	}

	submissionID := c.Param("submission_id")

	if req.Async && h.enqueuer != nil {
		payload, err := json.Marshal(fulfillment.SettlementPayload{
			SubmissionID: submissionID,
			Reason:       req.Reason,
		})
		if err != nil {
			c.Error(errutil.Internal("failed to encode settlement payload", err))
			return
		}

		name, err := settlementTaskName(outcome)
		if err != nil {
			c.Error(err)
			return
		}

		if _, err := h.enqueuer.Enqueue(asynq.NewTask(name, payload), asynq.Queue("critical")); err != nil {
			c.Error(errutil.Internal("failed to enqueue settlement", err))
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"submission_id": submissionID, "status": "queued"})
		return
	}

	out, err := h.fulfillment.ApplyValidationOutcome(c.Request.Context(), submissionID, outcome)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func settlementTaskName(outcome submission.Status) (string, error) {
	switch outcome {
	case submission.StatusValidated:
		return taskname.SubmissionValidated, nil
	case submission.StatusRejected:
		return taskname.SubmissionRejected, nil
	case submission.StatusManualConflict:
		return taskname.SubmissionConflict, nil
	default:
		return "", errutil.ValidationFailed("outcome must be a terminal status", nil)
	}
}
