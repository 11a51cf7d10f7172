package fulfillment

import (
	"context"
	"strings"
	"time"

	"incentiva-engine/pkg/db/option"
	"incentiva-engine/pkg/errutil"
	"incentiva-engine/pkg/repository"
	"incentiva-engine/services/campaign"
	"incentiva-engine/services/submission"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the fulfillment engine: the single owner of resolvedTier and
// creditedToBalance writes, and the single source of truth for progress,
// spillover and tier status on every read path. Presentation layers call in
// here instead of recomputing any of it.
type Service struct {
	db *gorm.DB

	submissions repository.Repository[submission.Submission]
	campaigns   *campaign.Service
	ledger      *submission.Service
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Campaigns *campaign.Service
	Ledger    *submission.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		submissions: repository.ProvideStore[submission.Submission](p.DB),
		campaigns:   p.Campaigns,
		ledger:      p.Ledger,
	}
}

// GetObjectiveProgress reports count/required/status for one objective
// instance identified by (campaign, ordering key, tier).
func (s *Service) GetObjectiveProgress(ctx context.Context, memberID, campaignID string, orderingKey, tier int) (*Progress, error) {
	objective, err := s.campaigns.ObjectiveFor(ctx, campaignID, orderingKey, tier)
	if err != nil {
		return nil, err
	}
	if objective == nil {
		return nil, errutil.NotFound("objective not defined for tier", nil)
	}

	subs, err := s.ledger.ListForObjectiveKey(ctx, memberID, campaignID, orderingKey)
	if err != nil {
		return nil, err
	}

	progress := EvaluateProgress(subs, objective.RequiredQuantity, tier)
	return &progress, nil
}

// GetDisplayedSubmissions lists the submissions shown inside one tier card.
// A tier with no definition (spillover past the campaign's last tier) yields
// an empty list and a data-integrity warning, never a user-facing error.
func (s *Service) GetDisplayedSubmissions(ctx context.Context, memberID, campaignID string, orderingKey, tier int) ([]*submission.Submission, error) {
	objective, err := s.campaigns.ObjectiveFor(ctx, campaignID, orderingKey, tier)
	if err != nil {
		return nil, err
	}
	if objective == nil {
		zap.L().Warn("tier has no objective definition, hiding submissions",
			zap.String("campaign_id", campaignID),
			zap.Int("ordering_key", orderingKey),
			zap.Int("tier", tier),
		)
		return []*submission.Submission{}, nil
	}

	subs, err := s.ledger.ListForObjectiveKey(ctx, memberID, campaignID, orderingKey)
	if err != nil {
		return nil, err
	}

	return DisplayedUnderTier(subs, objective.RequiredQuantity, tier), nil
}

// TierOverview is the tier card state: one Progress per objective plus the
// aggregate, which is COMPLETE only when every objective is COMPLETE.
type TierOverview struct {
	Tier       int               `json:"tier"`
	Status     TierStatus        `json:"status"`
	Objectives map[int]*Progress `json:"objectives"`
}

func (s *Service) GetTierOverview(ctx context.Context, memberID, campaignID string, tier int) (*TierOverview, error) {
	objectives, err := s.campaigns.ObjectivesForTier(ctx, campaignID, tier)
	if err != nil {
		return nil, err
	}
	if len(objectives) == 0 {
		return nil, errutil.NotFound("tier not defined for campaign", nil)
	}

	overview := &TierOverview{
		Tier:       tier,
		Objectives: make(map[int]*Progress, len(objectives)),
	}

	allComplete := true
	allLocked := true
	for _, objective := range objectives {
		subs, err := s.ledger.ListForObjectiveKey(ctx, memberID, campaignID, objective.OrderingKey)
		if err != nil {
			return nil, err
		}
		progress := EvaluateProgress(subs, objective.RequiredQuantity, tier)
		overview.Objectives[objective.OrderingKey] = &progress

		if progress.Status != TierComplete {
			allComplete = false
		}
		if progress.Status != TierLocked {
			allLocked = false
		}
	}

	switch {
	case allComplete:
		overview.Status = TierComplete
	case allLocked:
		overview.Status = TierLocked
	default:
		overview.Status = TierActive
	}

	return overview, nil
}

// ApplyValidationOutcome reacts to the validation workflow settling a
// submission. REJECTED and MANUAL_CONFLICT only flip the status; VALIDATED
// additionally assigns the permanent resolvedTier from the count observed
// inside a row-locked transaction, and releases the tier's credit when its
// last objective fills. The assignment is written once and never revised.
func (s *Service) ApplyValidationOutcome(ctx context.Context, submissionID string, outcome submission.Status) (*submission.Submission, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("submission_id", submissionID),
		zap.String("outcome", string(outcome)),
	)

	if !outcome.Terminal() {
		return nil, errutil.ValidationFailed("outcome must be a terminal status", nil)
	}

	var result *submission.Submission
	apply := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			result, err = s.applyOutcome(ctx, tx, submissionID, outcome)
			return err
		})
	}

	if err := apply(); err != nil {
		if !retryable(err) {
			zapLog.Error("failed to apply validation outcome", zap.Error(err))
			return nil, err
		}
		// Two concurrent validations raced on the same objective key; the
		// count is re-read and the tier recomputed on a single retry.
		zapLog.Warn("tier assignment conflict, retrying once", zap.Error(err))
		if err := apply(); err != nil {
			zapLog.Error("failed to apply validation outcome after retry", zap.Error(err))
			return nil, err
		}
	}

	zapLog.Info("validation outcome applied",
		zap.Intp("resolved_tier", result.ResolvedTier),
	)
	return result, nil
}

func (s *Service) applyOutcome(ctx context.Context, tx *gorm.DB, submissionID string, outcome submission.Status) (*submission.Submission, error) {
	subTx := s.submissions.WithTrx(tx)

	sub, err := subTx.FindOne(ctx, &submission.Submission{ID: submissionID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("submission not found", nil)
	}

	if sub.Status != submission.StatusPending {
		if sub.Status == outcome {
			// Replayed delivery of the same outcome; nothing to do.
			return sub, nil
		}
		return nil, errutil.Conflict("submission already settled", nil)
	}

	now := time.Now()

	if outcome != submission.StatusValidated {
		if err := subTx.Update(ctx, sub.ID, map[string]any{
			"status":     outcome,
			"updated_at": now,
		}); err != nil {
			return nil, err
		}
		sub.Status = outcome
		sub.UpdatedAt = now
		return sub, nil
	}

	objective, err := s.campaigns.GetObjective(ctx, sub.ObjectiveID)
	if err != nil {
		return nil, err
	}
	required := clampRequired(objective.RequiredQuantity)

	// Lock the whole (member, campaign, ordering key) set so two concurrent
	// validations cannot both read the same count and claim the same slot.
	siblings, err := subTx.Find(ctx, &submission.Submission{
		CampaignID:  sub.CampaignID,
		MemberID:    sub.MemberID,
		OrderingKey: sub.OrderingKey,
	}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}

	nth := TotalValidated(siblings) + 1
	tier := AssignTier(nth, required)

	if err := subTx.Update(ctx, sub.ID, map[string]any{
		"status":        submission.StatusValidated,
		"resolved_tier": tier,
		"validated_at":  now,
		"updated_at":    now,
	}); err != nil {
		return nil, err
	}

	sub.Status = submission.StatusValidated
	sub.ResolvedTier = &tier
	sub.ValidatedAt = &now
	sub.UpdatedAt = now

	if nth%required == 0 {
		// This validation filled the objective for its tier; the tier's
		// credit releases once every objective in it is filled.
		if err := s.releaseTierCredit(ctx, tx, sub, tier); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// releaseTierCredit flags every validated submission of the tier as credited
// once all the tier's objectives hold their required count. Crediting is the
// one-time, irrevocable event the ranking aggregator sums over.
func (s *Service) releaseTierCredit(ctx context.Context, tx *gorm.DB, sub *submission.Submission, tier int) error {
	objectives, err := s.campaigns.ObjectivesForTier(ctx, sub.CampaignID, tier)
	if err != nil {
		return err
	}
	if len(objectives) == 0 {
		// Spillover past the last defined tier; there is nothing to credit.
		zap.L().Warn("validated submission resolved past last defined tier",
			zap.String("submission_id", sub.ID),
			zap.String("campaign_id", sub.CampaignID),
			zap.Int("tier", tier),
		)
		return nil
	}

	for _, objective := range objectives {
		var count int64
		if err := tx.WithContext(ctx).Model(&submission.Submission{}).
			Where("campaign_id = ? AND member_id = ? AND ordering_key = ? AND status = ? AND resolved_tier = ?",
				sub.CampaignID, sub.MemberID, objective.OrderingKey, submission.StatusValidated, tier).
			Count(&count).Error; err != nil {
			return err
		}
		if count < int64(clampRequired(objective.RequiredQuantity)) {
			return nil
		}
	}

	if err := tx.WithContext(ctx).Model(&submission.Submission{}).
		Where("campaign_id = ? AND member_id = ? AND status = ? AND resolved_tier = ? AND credited_to_balance = ?",
			sub.CampaignID, sub.MemberID, submission.StatusValidated, tier, false).
		Updates(map[string]any{
			"credited_to_balance": true,
			"updated_at":          time.Now(),
		}).Error; err != nil {
		return err
	}

	zap.L().Info("tier credit released",
		zap.String("member_id", sub.MemberID),
		zap.String("campaign_id", sub.CampaignID),
		zap.Int("tier", tier),
	)
	return nil
}

// retryable matches the storage errors a concurrent tier assignment produces:
// serialization failures, deadlocks, lock timeouts and duplicate key hits.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"could not serialize",
		"deadlock",
		"lock wait timeout",
		"database is locked",
		"duplicate key",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
