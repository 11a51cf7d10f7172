package member

import (
	"context"

	"incentiva-engine/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Service is the read side over the member/store population. Account CRUD is
// owned by the platform backoffice; the engine only resolves ranking scopes.
type Service struct {
	db      *gorm.DB
	members repository.Repository[Member]
	stores  repository.Repository[Store]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		members: repository.ProvideStore[Member](p.DB),
		stores:  repository.ProvideStore[Store](p.DB),
	}
}

func (s *Service) Get(ctx context.Context, memberID string) (*Member, error) {
	return s.members.FindOne(ctx, &Member{ID: memberID})
}

func (s *Service) GetStore(ctx context.Context, storeID string) (*Store, error) {
	return s.stores.FindOne(ctx, &Store{ID: storeID})
}

// StoreGroup resolves a store plus its branches. Unknown stores resolve to an
// empty group so ranking scopes degrade to empty results, not errors.
func (s *Service) StoreGroup(ctx context.Context, storeID string, includeBranches bool) ([]string, error) {
	store, err := s.stores.FindOne(ctx, &Store{ID: storeID})
	if err != nil {
		return nil, err
	}
	if store == nil {
		return []string{}, nil
	}

	ids := []string{store.ID}
	if !includeBranches {
		return ids, nil
	}

	branches, err := s.stores.Find(ctx, &Store{ParentStoreID: store.ID})
	if err != nil {
		return nil, err
	}
	for _, branch := range branches {
		ids = append(ids, branch.ID)
	}
	return ids, nil
}
