package ranking

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ScopeType selects the population a leaderboard is computed over.
type ScopeType string

const (
	ScopeGlobal ScopeType = "GLOBAL"
	ScopeTeam   ScopeType = "TEAM"
	ScopeStore  ScopeType = "STORE"
)

// Scope identifies one leaderboard population inside a campaign. TEAM scopes
// by manager, STORE by a single store (optionally pulling in its branches) or
// by an explicit store list (the backoffice filter).
type Scope struct {
	Type            ScopeType `json:"type"`
	CampaignID      string    `json:"campaign_id"`
	ManagerID       string    `json:"manager_id,omitempty"`
	StoreID         string    `json:"store_id,omitempty"`
	StoreIDs        []string  `json:"store_ids,omitempty"`
	IncludeBranches bool      `json:"include_branches,omitempty"`
}

func (s Scope) validate() bool {
	switch s.Type {
	case ScopeGlobal:
		return s.CampaignID != ""
	case ScopeTeam:
		return s.CampaignID != "" && s.ManagerID != ""
	case ScopeStore:
		return s.CampaignID != "" && (s.StoreID != "" || len(s.StoreIDs) > 0)
	default:
		return false
	}
}

// cacheKey is stable for a scope; the page window is appended by the cache.
func (s Scope) cacheKey() string {
	switch s.Type {
	case ScopeTeam:
		return fmt.Sprintf("ranking:%s:team:%s", s.CampaignID, s.ManagerID)
	case ScopeStore:
		if len(s.StoreIDs) > 0 {
			return fmt.Sprintf("ranking:%s:stores:%s", s.CampaignID, strings.Join(s.StoreIDs, ","))
		}
		return fmt.Sprintf("ranking:%s:store:%s:%t", s.CampaignID, s.StoreID, s.IncludeBranches)
	default:
		return fmt.Sprintf("ranking:%s:global", s.CampaignID)
	}
}

// Entry is one leaderboard row. Total sums final_value over the member's
// credited submissions; position is dense from 1 with ties broken by the
// member's registration time, earliest first.
type Entry struct {
	Position int             `json:"position"`
	MemberID string          `json:"member_id"`
	Name     string          `json:"name"`
	StoreID  string          `json:"store_id,omitempty"`
	Total    decimal.Decimal `json:"total"`
}

// Page is one leaderboard window.
type Page struct {
	Entries      []*Entry `json:"entries"`
	Page         int      `json:"page"`
	PageSize     int      `json:"page_size"`
	TotalRecords int64    `json:"total_records"`
	TotalPages   int      `json:"total_pages"`
}

// StoreEntry is one row of the store leaderboard.
type StoreEntry struct {
	Position int             `json:"position"`
	StoreID  string          `json:"store_id"`
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
}

// StorePage is one store-leaderboard window, same paging contract as Page.
type StorePage struct {
	Entries      []*StoreEntry `json:"entries"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalRecords int64         `json:"total_records"`
	TotalPages   int           `json:"total_pages"`
}
