package member

import "time"

type Role string

const (
	RoleVendor  Role = "VENDOR"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

// Store is a point of sale. Matrix stores own branches through ParentStoreID;
// only ranking-visible stores appear on the store leaderboard.
type Store struct {
	ID             string    `gorm:"column:id;primaryKey;type:char(26)"`
	Name           string    `gorm:"column:name;type:varchar(255);not null"`
	ParentStoreID  string    `gorm:"column:parent_store_id;index"`
	RankingVisible bool      `gorm:"column:ranking_visible;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Member is a platform account. CreatedAt doubles as the ranking tie-break:
// on equal totals the earliest-registered member ranks higher.
type Member struct {
	ID        string    `gorm:"column:id;primaryKey;type:char(26)"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	Role      Role      `gorm:"column:role;type:varchar(20);not null;default:'VENDOR'"`
	Status    Status    `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE'"`
	StoreID   string    `gorm:"column:store_id;index"`
	ManagerID string    `gorm:"column:manager_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Eligible reports whether the member belongs to a ranking population.
func (m *Member) Eligible() bool {
	return m.Role == RoleVendor && m.Status == StatusActive
}
