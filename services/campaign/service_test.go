package campaign

import (
	"context"
	"testing"

	"incentiva-engine/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

func newCampaignService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Campaign{}, &Tier{}, &Objective{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func validInput() CreateCampaignInput {
	return CreateCampaignInput{
		Name:      "spring push",
		TierCount: 3,
		Objectives: []ObjectiveTemplate{
			{OrderingKey: 1, Description: "sell blenders", UnitKind: "orders", RequiredQuantity: 2},
			{OrderingKey: 2, Description: "sell mixers", UnitKind: "orders", RequiredQuantity: 1},
		},
	}
}

func TestCreateCampaignInstancesObjectivesPerTier(t *testing.T) {
	svc := newCampaignService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, StatusDraft, c.Status)
	require.NotEmpty(t, c.ID)

	tiers, err := svc.Tiers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	for i, tier := range tiers {
		require.Equal(t, i+1, tier.Sequence)
	}

	// Each tier carries its own instance of both templates.
	seen := map[string]bool{}
	for seq := 1; seq <= 3; seq++ {
		objectives, err := svc.ObjectivesForTier(ctx, c.ID, seq)
		require.NoError(t, err)
		require.Len(t, objectives, 2)
		require.Equal(t, 1, objectives[0].OrderingKey)
		require.Equal(t, 2, objectives[1].OrderingKey)
		for _, o := range objectives {
			require.False(t, seen[o.ID], "objective instances must have distinct IDs")
			seen[o.ID] = true
			require.Equal(t, seq, o.TierSequence)
		}
	}

	across, err := svc.ObjectivesForKey(ctx, c.ID, 1)
	require.NoError(t, err)
	require.Len(t, across, 3)
	for i, o := range across {
		require.Equal(t, i+1, o.TierSequence)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	svc := newCampaignService(t)
	ctx := context.Background()

	cases := map[string]func(*CreateCampaignInput){
		"empty name":             func(in *CreateCampaignInput) { in.Name = "" },
		"zero tiers":             func(in *CreateCampaignInput) { in.TierCount = 0 },
		"no objectives":          func(in *CreateCampaignInput) { in.Objectives = nil },
		"zero ordering key":      func(in *CreateCampaignInput) { in.Objectives[0].OrderingKey = 0 },
		"zero required quantity": func(in *CreateCampaignInput) { in.Objectives[0].RequiredQuantity = 0 },
		"duplicate ordering key": func(in *CreateCampaignInput) { in.Objectives[1].OrderingKey = 1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.CreateCampaign(ctx, in)
			require.Error(t, err)
		})
	}
}

func TestActivateCampaign(t *testing.T) {
	svc := newCampaignService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, validInput())
	require.NoError(t, err)

	activated, err := svc.ActivateCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, activated.Status)

	got, err := svc.GetCampaign(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)

	_, err = svc.ActivateCampaign(ctx, "missing")
	require.Error(t, err)
}

func TestObjectiveForUndefinedTier(t *testing.T) {
	svc := newCampaignService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, validInput())
	require.NoError(t, err)

	o, err := svc.ObjectiveFor(ctx, c.ID, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, o)

	// Past the last defined tier: nil, not an error.
	o, err = svc.ObjectiveFor(ctx, c.ID, 1, 4)
	require.NoError(t, err)
	require.Nil(t, o)
}
