package campaign

import "time"

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// Campaign is a time-boxed incentive program made of sequential tiers
// ("cartelas"). Vendors fill tier 1 before tier 2 opens, and so on.
type Campaign struct {
	ID          string     `gorm:"column:id;primaryKey;type:char(26)"`
	Code        string     `gorm:"column:code"`
	Name        string     `gorm:"column:name;type:varchar(255);not null"`
	Description string     `gorm:"column:description;type:text"`
	Status      Status     `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'"`
	StartAt     *time.Time `gorm:"column:start_at"`
	EndAt       *time.Time `gorm:"column:end_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive checks if the campaign is currently running based on time range & status.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

// Tier is one reward level. Sequence starts at 1 and defines fill order.
type Tier struct {
	ID         string    `gorm:"column:id;primaryKey;type:char(26)"`
	CampaignID string    `gorm:"column:campaign_id;index;not null"`
	Sequence   int       `gorm:"column:sequence;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Objective is a quantified goal inside one tier. The same logical objective
// (same ordering key) is instanced once per tier, each instance with its own
// ID. Submissions reference the instance; progress is computed per key.
type Objective struct {
	ID               string    `gorm:"column:id;primaryKey;type:char(26)"`
	CampaignID       string    `gorm:"column:campaign_id;index;not null"`
	TierID           string    `gorm:"column:tier_id;index;not null"`
	TierSequence     int       `gorm:"column:tier_sequence;not null"`
	OrderingKey      int       `gorm:"column:ordering_key;not null"`
	Description      string    `gorm:"column:description;type:text"`
	UnitKind         string    `gorm:"column:unit_kind;type:varchar(50)"`
	RequiredQuantity int       `gorm:"column:required_quantity;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
