package ranking

import (
	"context"
	"sort"
	"time"

	"incentiva-engine/pkg/config"
	"incentiva-engine/pkg/db/pagination"
	"incentiva-engine/pkg/errutil"
	"incentiva-engine/services/member"
	"incentiva-engine/services/submission"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultInMemoryThreshold = 200

// Service is the ranking aggregator. It only ever reads settled ledger state:
// a submission contributes to a total once it is VALIDATED, credited and
// carries a resolved tier, and since none of those fields are ever revised the
// totals are append-only and safe to cache.
type Service struct {
	db      *gorm.DB
	members *member.Service
	cache   *Cache

	inMemoryThreshold int
}

type ServiceParams struct {
	fx.In

	DB      *gorm.DB
	Config  *config.Config
	Members *member.Service
	Cache   *Cache `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	threshold := defaultInMemoryThreshold
	if p.Config != nil && p.Config.Ranking.InMemoryThreshold > 0 {
		threshold = p.Config.Ranking.InMemoryThreshold
	}
	return &Service{
		db:                p.DB,
		members:           p.Members,
		cache:             p.Cache,
		inMemoryThreshold: threshold,
	}
}

// creditedJoin is the contribution predicate shared by every aggregate below.
const creditedJoin = "submissions.member_id = members.id" +
	" AND submissions.campaign_id = ?" +
	" AND submissions.status = ?" +
	" AND submissions.credited_to_balance = ?" +
	" AND submissions.resolved_tier IS NOT NULL"

// scoped narrows the member population to the scope. Eligibility (active
// vendors only) applies to every scope type.
func (s *Service) scoped(ctx context.Context, q *gorm.DB, scope Scope) (*gorm.DB, error) {
	q = q.Where("members.role = ? AND members.status = ?", member.RoleVendor, member.StatusActive)

	switch scope.Type {
	case ScopeTeam:
		q = q.Where("members.manager_id = ?", scope.ManagerID)
	case ScopeStore:
		storeIDs := scope.StoreIDs
		if len(storeIDs) == 0 {
			var err error
			storeIDs, err = s.members.StoreGroup(ctx, scope.StoreID, scope.IncludeBranches)
			if err != nil {
				return nil, err
			}
		}
		if len(storeIDs) == 0 {
			// Unknown store: an empty population, not an error.
			q = q.Where("1 = 0")
		} else {
			q = q.Where("members.store_id IN ?", storeIDs)
		}
	}
	return q, nil
}

// GetRanking returns one leaderboard page. Small populations are ranked in
// memory; large ones push the aggregation and ordering down to the database.
// Both paths order by total descending with the member's registration time as
// the tie-break, so they agree row for row.
func (s *Service) GetRanking(ctx context.Context, scope Scope, p pagination.Pagination) (*Page, error) {
	if !scope.validate() {
		return nil, errutil.ValidationFailed("incomplete ranking scope", nil)
	}
	p = p.Normalize()

	if page, ok := s.cache.GetPage(ctx, scope, p); ok {
		return page, nil
	}

	population, err := s.populationSize(ctx, scope)
	if err != nil {
		return nil, err
	}

	var page *Page
	if population <= int64(s.inMemoryThreshold) {
		page, err = s.rankInMemory(ctx, scope, p, population)
	} else {
		page, err = s.rankInDatabase(ctx, scope, p, population)
	}
	if err != nil {
		return nil, err
	}

	s.cache.SetPage(ctx, scope, p, page)
	return page, nil
}

func (s *Service) populationSize(ctx context.Context, scope Scope) (int64, error) {
	q, err := s.scoped(ctx, s.db.WithContext(ctx).Model(&member.Member{}), scope)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

type aggregateRow struct {
	MemberID  string          `gorm:"column:member_id"`
	Name      string          `gorm:"column:name"`
	StoreID   string          `gorm:"column:store_id"`
	Total     decimal.Decimal `gorm:"column:total"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (s *Service) aggregateQuery(ctx context.Context, scope Scope) (*gorm.DB, error) {
	q := s.db.WithContext(ctx).Model(&member.Member{}).
		Select("members.id AS member_id, members.name AS name, members.store_id AS store_id, members.created_at AS created_at, COALESCE(SUM(submissions.final_value), 0) AS total").
		Joins("LEFT JOIN submissions ON "+creditedJoin,
			scope.CampaignID, submission.StatusValidated, true).
		Group("members.id, members.name, members.store_id, members.created_at")
	return s.scoped(ctx, q, scope)
}

func (s *Service) rankInDatabase(ctx context.Context, scope Scope, p pagination.Pagination, population int64) (*Page, error) {
	q, err := s.aggregateQuery(ctx, scope)
	if err != nil {
		return nil, err
	}

	var rows []aggregateRow
	if err := q.Order("total DESC, members.created_at ASC").
		Limit(p.PageSize).
		Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		zap.L().Error("ranking aggregation failed", zap.Error(err))
		return nil, err
	}

	entries := make([]*Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &Entry{
			Position: p.Offset() + i + 1,
			MemberID: row.MemberID,
			Name:     row.Name,
			StoreID:  row.StoreID,
			Total:    row.Total,
		})
	}

	return &Page{
		Entries:      entries,
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalRecords: population,
		TotalPages:   pagination.TotalPages(population, p.PageSize),
	}, nil
}

func (s *Service) rankInMemory(ctx context.Context, scope Scope, p pagination.Pagination, population int64) (*Page, error) {
	q, err := s.aggregateQuery(ctx, scope)
	if err != nil {
		return nil, err
	}

	var rows []aggregateRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Total.Equal(rows[j].Total) {
			return rows[i].Total.GreaterThan(rows[j].Total)
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	entries := make([]*Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &Entry{
			Position: i + 1,
			MemberID: row.MemberID,
			Name:     row.Name,
			StoreID:  row.StoreID,
			Total:    row.Total,
		})
	}

	return &Page{
		Entries:      pagination.Slice(entries, p),
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalRecords: population,
		TotalPages:   pagination.TotalPages(population, p.PageSize),
	}, nil
}

// GetVendorPosition returns the member's 1-indexed position inside the scope,
// or 0 when the member is not part of the population (blocked, not a vendor,
// outside the scope, or unknown). Zero-total vendors still hold a position.
func (s *Service) GetVendorPosition(ctx context.Context, scope Scope, memberID string) (int, error) {
	if !scope.validate() {
		return 0, errutil.ValidationFailed("incomplete ranking scope", nil)
	}
	if memberID == "" {
		return 0, errutil.ValidationFailed("member_id is required", nil)
	}

	if pos, ok := s.cache.GetPosition(ctx, scope, memberID); ok {
		return pos, nil
	}

	sub, err := s.aggregateQuery(ctx, scope)
	if err != nil {
		return 0, err
	}
	sub = sub.Select("members.id AS member_id," +
		" ROW_NUMBER() OVER (ORDER BY COALESCE(SUM(submissions.final_value), 0) DESC, members.created_at ASC) AS position")

	var position int
	err = s.db.WithContext(ctx).
		Table("(?) AS ranked", sub).
		Where("ranked.member_id = ?", memberID).
		Select("ranked.position").
		Scan(&position).Error
	if err != nil {
		return 0, err
	}

	s.cache.SetPosition(ctx, scope, memberID, position)
	return position, nil
}

// GetStoreRanking aggregates vendor totals per store across a campaign. Only
// ranking-visible stores appear; a visible store with no credited submissions
// still shows with a zero total.
func (s *Service) GetStoreRanking(ctx context.Context, campaignID string, p pagination.Pagination) (*StorePage, error) {
	if campaignID == "" {
		return nil, errutil.ValidationFailed("campaign_id is required", nil)
	}
	p = p.Normalize()

	var population int64
	if err := s.db.WithContext(ctx).Model(&member.Store{}).
		Where("ranking_visible = ?", true).
		Count(&population).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		StoreID   string          `gorm:"column:store_id"`
		Name      string          `gorm:"column:name"`
		Total     decimal.Decimal `gorm:"column:total"`
		CreatedAt time.Time       `gorm:"column:created_at"`
	}
	err := s.db.WithContext(ctx).Model(&member.Store{}).
		Select("stores.id AS store_id, stores.name AS name, stores.created_at AS created_at, COALESCE(SUM(submissions.final_value), 0) AS total").
		Joins("LEFT JOIN members ON members.store_id = stores.id AND members.role = ? AND members.status = ?",
			member.RoleVendor, member.StatusActive).
		Joins("LEFT JOIN submissions ON "+creditedJoin,
			campaignID, submission.StatusValidated, true).
		Where("stores.ranking_visible = ?", true).
		Group("stores.id, stores.name, stores.created_at").
		Order("total DESC, stores.created_at ASC").
		Limit(p.PageSize).
		Offset(p.Offset()).
		Scan(&rows).Error
	if err != nil {
		zap.L().Error("store ranking aggregation failed", zap.Error(err))
		return nil, err
	}

	entries := make([]*StoreEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &StoreEntry{
			Position: p.Offset() + i + 1,
			StoreID:  row.StoreID,
			Name:     row.Name,
			Total:    row.Total,
		})
	}

	return &StorePage{
		Entries:      entries,
		Page:         p.Page,
		PageSize:     p.PageSize,
		TotalRecords: population,
		TotalPages:   pagination.TotalPages(population, p.PageSize),
	}, nil
}
