package submission

import (
	"context"

	"incentiva-engine/pkg/db/option"
	"incentiva-engine/pkg/errutil"
	"incentiva-engine/pkg/repository"
	"incentiva-engine/pkg/sequence"
	"incentiva-engine/services/campaign"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateSubmissionInput struct {
	MemberID    string          `json:"member_id"`
	ObjectiveID string          `json:"objective_id"`
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Metadata    datatypes.JSON  `json:"metadata"`
}

// Service is the submission ledger: vendors append PENDING claims, the
// fulfillment engine reads them back. Everything else about a submission is
// written by the validation workflow or the engine, never here.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator

	submissions repository.Repository[Submission]
	campaigns   *campaign.Service
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Seq       sequence.Generator `optional:"true"`
	Campaigns *campaign.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		seq:         p.Seq,
		submissions: repository.ProvideStore[Submission](p.DB),
		campaigns:   p.Campaigns,
	}
}

func (s *Service) Create(ctx context.Context, in CreateSubmissionInput) (*Submission, error) {
	if in.MemberID == "" || in.ObjectiveID == "" {
		return nil, errutil.ValidationFailed("member_id and objective_id are required", nil)
	}
	if in.OrderNumber == "" {
		return nil, errutil.ValidationFailed("order_number is required", nil)
	}
	if in.Amount.IsNegative() {
		return nil, errutil.ValidationFailed("amount must not be negative", nil)
	}

	objective, err := s.campaigns.GetObjective(ctx, in.ObjectiveID)
	if err != nil {
		return nil, err
	}

	// Same order number twice for the same objective key is a duplicate claim.
	if exist, _ := s.submissions.FindOne(ctx, &Submission{
		CampaignID:  objective.CampaignID,
		MemberID:    in.MemberID,
		OrderingKey: objective.OrderingKey,
		OrderNumber: in.OrderNumber,
	}); exist != nil {
		zap.L().Warn("duplicate order number for objective",
			zap.String("member_id", in.MemberID),
			zap.String("order_number", in.OrderNumber),
		)
		return nil, errutil.Conflict("order number already submitted for this objective", nil)
	}

	multiplier := in.Multiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}

	code := ""
	if s.seq != nil {
		code, err = s.seq.NextSubmissionCode(ctx, objective.CampaignID)
		if err != nil {
			return nil, err
		}
	}

	sub := &Submission{
		ID:          s.node.Generate().String(),
		Code:        code,
		CampaignID:  objective.CampaignID,
		ObjectiveID: objective.ID,
		OrderingKey: objective.OrderingKey,
		MemberID:    in.MemberID,
		OrderNumber: in.OrderNumber,
		Status:      StatusPending,
		Amount:      in.Amount,
		Multiplier:  multiplier,
		FinalValue:  in.Amount.Mul(multiplier),
		Metadata:    in.Metadata,
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		zap.L().Error("failed to create submission", zap.Error(err))
		return nil, err
	}

	return sub, nil
}

func (s *Service) Get(ctx context.Context, submissionID string) (*Submission, error) {
	sub, err := s.submissions.FindOne(ctx, &Submission{ID: submissionID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("submission not found", nil)
	}
	return sub, nil
}

// ListForObjectiveKey is the cross-tier read the spillover resolver depends
// on: one logical objective is instanced per tier with distinct IDs, so the
// lookup goes by (campaign, member, ordering key), not by objective instance.
func (s *Service) ListForObjectiveKey(ctx context.Context, memberID, campaignID string, orderingKey int) ([]*Submission, error) {
	return s.submissions.Find(ctx, &Submission{
		CampaignID:  campaignID,
		MemberID:    memberID,
		OrderingKey: orderingKey,
	}, withCreatedAtOrder())
}

func (s *Service) ListForMember(ctx context.Context, memberID, campaignID string) ([]*Submission, error) {
	return s.submissions.Find(ctx, &Submission{
		CampaignID: campaignID,
		MemberID:   memberID,
	}, withCreatedAtOrder())
}

func withCreatedAtOrder() option.QueryOption {
	return option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	})
}
