package submission

import (
	"time"

	"incentiva-engine/pkg/errutil"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status is the submission lifecycle. PENDING is the only non-terminal state;
// the validation workflow moves a submission out of it exactly once.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusValidated      Status = "VALIDATED"
	StatusRejected       Status = "REJECTED"
	StatusManualConflict Status = "MANUAL_CONFLICT"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusValidated, StatusRejected, StatusManualConflict:
		return Status(s), nil
	default:
		return "", errutil.ValidationFailed("unknown submission status: "+s, nil)
	}
}

// Terminal reports whether the status is an outcome the validation workflow
// has settled on.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusRejected || s == StatusManualConflict
}

// Counted reports whether the status contributes to tier progress.
func (s Status) Counted() bool {
	return s == StatusValidated
}

// Submission is one vendor claim (an order number) offered as evidence toward
// an objective. ResolvedTier and CreditedToBalance are written exactly once
// by the fulfillment engine and never revised; that immutability is what
// keeps rankings from churning.
type Submission struct {
	ID          string `gorm:"column:id;primaryKey;type:char(26)"`
	Code        string `gorm:"column:code"`
	CampaignID  string `gorm:"column:campaign_id;index;not null"`
	ObjectiveID string `gorm:"column:objective_id;index;not null"`
	OrderingKey int    `gorm:"column:ordering_key;index;not null"`
	MemberID    string `gorm:"column:member_id;index;not null"`
	OrderNumber string `gorm:"column:order_number;not null"`
	Status      Status `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`

	ResolvedTier      *int `gorm:"column:resolved_tier"`
	CreditedToBalance bool `gorm:"column:credited_to_balance;not null;default:false"`

	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Multiplier decimal.Decimal `gorm:"column:multiplier;type:numeric(8,3);not null"`
	FinalValue decimal.Decimal `gorm:"column:final_value;type:numeric(14,2);not null"`

	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	ValidatedAt *time.Time     `gorm:"column:validated_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
