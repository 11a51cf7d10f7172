package fulfillment

import (
	"context"
	"encoding/json"
	"testing"

	"incentiva-engine/pkg/taskname"
	"incentiva-engine/services/campaign"
	"incentiva-engine/services/submission"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestTaskHandlerSettlesSubmission(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 2, campaign.ObjectiveTemplate{
		OrderingKey: 1, RequiredQuantity: 1,
	})
	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)

	sub := env.submit(t, "vendor-1", objectives[0].ID, "ORD-1")

	mux := asynq.NewServeMux()
	NewTaskHandler(env.engine).Register(mux)

	payload, err := json.Marshal(SettlementPayload{SubmissionID: sub.ID})
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(ctx, asynq.NewTask(taskname.SubmissionValidated, payload)))

	got, err := env.submissions.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, submission.StatusValidated, got.Status)
	require.Equal(t, 1, *got.ResolvedTier)

	// Redelivery of the same task settles idempotently.
	require.NoError(t, mux.ProcessTask(ctx, asynq.NewTask(taskname.SubmissionValidated, payload)))
}

func TestTaskHandlerRejectsMalformedPayload(t *testing.T) {
	env := newEngineEnv(t)

	mux := asynq.NewServeMux()
	NewTaskHandler(env.engine).Register(mux)

	err := mux.ProcessTask(context.Background(),
		asynq.NewTask(taskname.SubmissionRejected, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
