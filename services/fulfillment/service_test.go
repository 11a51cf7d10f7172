package fulfillment

import (
	"context"
	"fmt"
	"testing"

	"incentiva-engine/services/campaign"
	"incentiva-engine/services/member"
	"incentiva-engine/services/submission"
	"incentiva-engine/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type engineEnv struct {
	db          *gorm.DB
	campaigns   *campaign.Service
	submissions *submission.Service
	engine      *Service
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	db := testutil.NewTestDB(t,
		&member.Store{}, &member.Member{},
		&campaign.Campaign{}, &campaign.Tier{}, &campaign.Objective{},
		&submission.Submission{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	campaigns := campaign.NewService(campaign.ServiceParams{DB: db, Node: node})
	submissions := submission.NewService(submission.ServiceParams{
		DB: db, Node: node, Campaigns: campaigns,
	})
	engine := NewService(ServiceParams{DB: db, Campaigns: campaigns, Ledger: submissions})

	return &engineEnv{db: db, campaigns: campaigns, submissions: submissions, engine: engine}
}

func (e *engineEnv) createCampaign(t *testing.T, tierCount int, objectives ...campaign.ObjectiveTemplate) *campaign.Campaign {
	t.Helper()
	c, err := e.campaigns.CreateCampaign(context.Background(), campaign.CreateCampaignInput{
		Name:       "winter push",
		TierCount:  tierCount,
		Objectives: objectives,
	})
	require.NoError(t, err)
	return c
}

func (e *engineEnv) submit(t *testing.T, memberID, objectiveID, orderNumber string) *submission.Submission {
	t.Helper()
	sub, err := e.submissions.Create(context.Background(), submission.CreateSubmissionInput{
		MemberID:    memberID,
		ObjectiveID: objectiveID,
		OrderNumber: orderNumber,
		Amount:      decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return sub
}

func TestApplyValidationOutcomeSpillover(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 3, campaign.ObjectiveTemplate{
		OrderingKey: 1, Description: "sell blenders", RequiredQuantity: 2,
	})

	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)
	require.Len(t, objectives, 1)
	objectiveID := objectives[0].ID

	subs := make([]*submission.Submission, 0, 5)
	for i := 1; i <= 5; i++ {
		subs = append(subs, env.submit(t, "vendor-1", objectiveID, fmt.Sprintf("ORD-%d", i)))
	}

	// The third submission never settles; the other four validate in order.
	for _, i := range []int{0, 1, 3, 4} {
		_, err := env.engine.ApplyValidationOutcome(ctx, subs[i].ID, submission.StatusValidated)
		require.NoError(t, err)
	}

	wantTiers := map[int]int{0: 1, 1: 1, 3: 2, 4: 2}
	for i, want := range wantTiers {
		got, err := env.submissions.Get(ctx, subs[i].ID)
		require.NoError(t, err)
		require.NotNil(t, got.ResolvedTier)
		require.Equal(t, want, *got.ResolvedTier, "submission #%d", i+1)
		require.True(t, got.CreditedToBalance, "submission #%d fills a completed tier", i+1)
		require.NotNil(t, got.ValidatedAt)
	}

	pending, err := env.submissions.Get(ctx, subs[2].ID)
	require.NoError(t, err)
	require.Equal(t, submission.StatusPending, pending.Status)
	require.Nil(t, pending.ResolvedTier)
	require.False(t, pending.CreditedToBalance)

	// Tiers 1 and 2 complete, tier 3 active with the straggler on display.
	for tier, want := range map[int]TierStatus{1: TierComplete, 2: TierComplete, 3: TierActive} {
		p, err := env.engine.GetObjectiveProgress(ctx, "vendor-1", c.ID, 1, tier)
		require.NoError(t, err)
		require.Equal(t, want, p.Status, "tier %d", tier)
	}

	displayed, err := env.engine.GetDisplayedSubmissions(ctx, "vendor-1", c.ID, 1, 3)
	require.NoError(t, err)
	require.Len(t, displayed, 1)
	require.Equal(t, subs[2].ID, displayed[0].ID)
}

func TestApplyValidationOutcomeReplay(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 2, campaign.ObjectiveTemplate{
		OrderingKey: 1, RequiredQuantity: 2,
	})
	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)

	sub := env.submit(t, "vendor-1", objectives[0].ID, "ORD-1")

	first, err := env.engine.ApplyValidationOutcome(ctx, sub.ID, submission.StatusValidated)
	require.NoError(t, err)
	require.Equal(t, 1, *first.ResolvedTier)

	// Same outcome delivered twice is a no-op, not a second tier slot.
	replayed, err := env.engine.ApplyValidationOutcome(ctx, sub.ID, submission.StatusValidated)
	require.NoError(t, err)
	require.Equal(t, 1, *replayed.ResolvedTier)

	p, err := env.engine.GetObjectiveProgress(ctx, "vendor-1", c.ID, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, p.Count)

	// A different outcome for a settled submission is a conflict.
	_, err = env.engine.ApplyValidationOutcome(ctx, sub.ID, submission.StatusRejected)
	require.Error(t, err)
}

func TestApplyValidationOutcomeRejection(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 2, campaign.ObjectiveTemplate{
		OrderingKey: 1, RequiredQuantity: 1,
	})
	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)

	sub := env.submit(t, "vendor-1", objectives[0].ID, "ORD-1")

	out, err := env.engine.ApplyValidationOutcome(ctx, sub.ID, submission.StatusRejected)
	require.NoError(t, err)
	require.Equal(t, submission.StatusRejected, out.Status)
	require.Nil(t, out.ResolvedTier)
	require.False(t, out.CreditedToBalance)

	_, err = env.engine.ApplyValidationOutcome(ctx, sub.ID, submission.StatusPending)
	require.Error(t, err, "PENDING is not a terminal outcome")
}

func TestCreditReleaseWaitsForAllObjectives(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 2,
		campaign.ObjectiveTemplate{OrderingKey: 1, RequiredQuantity: 1},
		campaign.ObjectiveTemplate{OrderingKey: 2, RequiredQuantity: 1},
	)
	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)
	require.Len(t, objectives, 2)

	first := env.submit(t, "vendor-1", objectives[0].ID, "ORD-1")
	second := env.submit(t, "vendor-1", objectives[1].ID, "ORD-2")

	out, err := env.engine.ApplyValidationOutcome(ctx, first.ID, submission.StatusValidated)
	require.NoError(t, err)
	require.Equal(t, 1, *out.ResolvedTier)
	require.False(t, out.CreditedToBalance, "tier 1 still has an unfilled objective")

	_, err = env.engine.ApplyValidationOutcome(ctx, second.ID, submission.StatusValidated)
	require.NoError(t, err)

	// The second objective filling releases the whole tier's credit.
	for _, id := range []string{first.ID, second.ID} {
		got, err := env.submissions.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, got.CreditedToBalance)
	}

	overview, err := env.engine.GetTierOverview(ctx, "vendor-1", c.ID, 1)
	require.NoError(t, err)
	require.Equal(t, TierComplete, overview.Status)
	require.Len(t, overview.Objectives, 2)
}

func TestGetTierOverviewLockedTier(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 3, campaign.ObjectiveTemplate{
		OrderingKey: 1, RequiredQuantity: 2,
	})

	overview, err := env.engine.GetTierOverview(ctx, "vendor-1", c.ID, 2)
	require.NoError(t, err)
	require.Equal(t, TierLocked, overview.Status)

	_, err = env.engine.GetTierOverview(ctx, "vendor-1", c.ID, 9)
	require.Error(t, err, "undefined tier")
}

func TestDisplayedSubmissionsPastLastTierAreHidden(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	c := env.createCampaign(t, 1, campaign.ObjectiveTemplate{
		OrderingKey: 1, RequiredQuantity: 1,
	})
	objectives, err := env.campaigns.ObjectivesForTier(ctx, c.ID, 1)
	require.NoError(t, err)

	first := env.submit(t, "vendor-1", objectives[0].ID, "ORD-1")
	_, err = env.engine.ApplyValidationOutcome(ctx, first.ID, submission.StatusValidated)
	require.NoError(t, err)

	// Tier 1 is full, so a new claim belongs to open tier 2, which the
	// campaign never defined. It must not surface anywhere.
	env.submit(t, "vendor-1", objectives[0].ID, "ORD-2")

	displayed, err := env.engine.GetDisplayedSubmissions(ctx, "vendor-1", c.ID, 1, 2)
	require.NoError(t, err)
	require.Empty(t, displayed)

	displayed, err = env.engine.GetDisplayedSubmissions(ctx, "vendor-1", c.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, displayed, 1)
	require.Equal(t, first.ID, displayed[0].ID)
}

func TestApplyValidationOutcomeUnknownSubmission(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.engine.ApplyValidationOutcome(context.Background(), "missing", submission.StatusValidated)
	require.Error(t, err)
}
