package campaign

import (
	"context"
	"fmt"
	"time"

	"incentiva-engine/pkg/errutil"
	"incentiva-engine/pkg/repository"
	"incentiva-engine/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ObjectiveTemplate describes one logical objective. CreateCampaign instances
// it once per tier.
type ObjectiveTemplate struct {
	OrderingKey      int    `json:"ordering_key"`
	Description      string `json:"description"`
	UnitKind         string `json:"unit_kind"`
	RequiredQuantity int    `json:"required_quantity"`
}

type CreateCampaignInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	TierCount   int                 `json:"tier_count"`
	StartAt     *time.Time          `json:"start_at"`
	EndAt       *time.Time          `json:"end_at"`
	Objectives  []ObjectiveTemplate `json:"objectives"`
}

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator

	campaigns  repository.Repository[Campaign]
	tiers      repository.Repository[Tier]
	objectives repository.Repository[Objective]
}

type ServiceParams struct {
	fx.In

	DB   *gorm.DB
	Node *snowflake.Node
	Seq  sequence.Generator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:         p.DB,
		node:       p.Node,
		seq:        p.Seq,
		campaigns:  repository.ProvideStore[Campaign](p.DB),
		tiers:      repository.ProvideStore[Tier](p.DB),
		objectives: repository.ProvideStore[Objective](p.DB),
	}
}

func (in CreateCampaignInput) validate() error {
	if in.Name == "" {
		return errutil.ValidationFailed("campaign name is required", nil)
	}
	if in.TierCount < 1 {
		return errutil.ValidationFailed("campaign needs at least one tier", nil)
	}
	if len(in.Objectives) == 0 {
		return errutil.ValidationFailed("campaign needs at least one objective", nil)
	}
	seen := make(map[int]bool, len(in.Objectives))
	for _, tpl := range in.Objectives {
		if tpl.OrderingKey < 1 {
			return errutil.ValidationFailed("objective ordering key must be >= 1", nil)
		}
		if tpl.RequiredQuantity < 1 {
			return errutil.ValidationFailed(
				fmt.Sprintf("objective %d: required quantity must be >= 1", tpl.OrderingKey), nil)
		}
		if seen[tpl.OrderingKey] {
			return errutil.ValidationFailed(
				fmt.Sprintf("objective ordering key %d declared twice", tpl.OrderingKey), nil)
		}
		seen[tpl.OrderingKey] = true
	}
	return nil
}

// CreateCampaign persists the campaign with TierCount tiers and one objective
// instance per (tier, template). Every tier carries the same ordering keys,
// which is what the fulfillment engine's cross-tier queries rely on.
func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*Campaign, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	code := ""
	if s.seq != nil {
		var err error
		code, err = s.seq.NextCampaignCode(ctx)
		if err != nil {
			return nil, err
		}
	}

	c := &Campaign{
		ID:          s.node.Generate().String(),
		Code:        code,
		Name:        in.Name,
		Description: in.Description,
		Status:      StatusDraft,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaignTx := s.campaigns.WithTrx(tx)
		tierTx := s.tiers.WithTrx(tx)
		objectiveTx := s.objectives.WithTrx(tx)

		if err := campaignTx.Create(ctx, c); err != nil {
			return err
		}

		for seq := 1; seq <= in.TierCount; seq++ {
			tier := &Tier{
				ID:         s.node.Generate().String(),
				CampaignID: c.ID,
				Sequence:   seq,
			}
			if err := tierTx.Create(ctx, tier); err != nil {
				return err
			}

			instances := make([]*Objective, 0, len(in.Objectives))
			for _, tpl := range in.Objectives {
				instances = append(instances, &Objective{
					ID:               s.node.Generate().String(),
					CampaignID:       c.ID,
					TierID:           tier.ID,
					TierSequence:     seq,
					OrderingKey:      tpl.OrderingKey,
					Description:      tpl.Description,
					UnitKind:         tpl.UnitKind,
					RequiredQuantity: tpl.RequiredQuantity,
				})
			}
			if err := objectiveTx.BatchCreate(ctx, instances); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		zap.L().Error("failed to create campaign", zap.Error(err))
		return nil, err
	}

	return c, nil
}

func (s *Service) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	c, err := s.campaigns.FindOne(ctx, &Campaign{ID: campaignID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	return c, nil
}

func (s *Service) ActivateCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusClosed {
		return nil, errutil.Conflict("campaign is closed", nil)
	}

	if err := s.campaigns.Update(ctx, c.ID, &Campaign{Status: StatusActive}); err != nil {
		return nil, err
	}
	c.Status = StatusActive
	return c, nil
}

// Tiers returns the campaign's tiers in fill order.
func (s *Service) Tiers(ctx context.Context, campaignID string) ([]*Tier, error) {
	return s.tiers.Find(ctx, &Tier{CampaignID: campaignID},
		withSequenceOrder(),
	)
}

// ObjectivesForKey returns every instance of one logical objective across the
// campaign's tiers, in tier order.
func (s *Service) ObjectivesForKey(ctx context.Context, campaignID string, orderingKey int) ([]*Objective, error) {
	return s.objectives.Find(ctx, &Objective{CampaignID: campaignID, OrderingKey: orderingKey},
		withTierSequenceOrder(),
	)
}

// ObjectiveFor resolves the instance of one logical objective inside one
// tier. Returns nil when the tier has no such instance (spillover past the
// last defined tier lands here; callers hide those submissions).
func (s *Service) ObjectiveFor(ctx context.Context, campaignID string, orderingKey, tierSequence int) (*Objective, error) {
	return s.objectives.FindOne(ctx, &Objective{
		CampaignID:   campaignID,
		OrderingKey:  orderingKey,
		TierSequence: tierSequence,
	})
}

// ObjectivesForTier returns all objective instances of one tier, ordered by key.
func (s *Service) ObjectivesForTier(ctx context.Context, campaignID string, tierSequence int) ([]*Objective, error) {
	return s.objectives.Find(ctx, &Objective{CampaignID: campaignID, TierSequence: tierSequence},
		withOrderingKeyOrder(),
	)
}

func (s *Service) GetObjective(ctx context.Context, objectiveID string) (*Objective, error) {
	o, err := s.objectives.FindOne(ctx, &Objective{ID: objectiveID})
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errutil.NotFound("objective not found", nil)
	}
	return o, nil
}
