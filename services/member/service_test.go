package member

import (
	"context"
	"testing"

	"incentiva-engine/services/testutil"

	"github.com/stretchr/testify/require"
)

func TestStoreGroup(t *testing.T) {
	db := testutil.NewTestDB(t, &Store{}, &Member{})
	svc := NewService(ServiceParams{DB: db})
	ctx := context.Background()

	require.NoError(t, db.Create(&Store{ID: "hq", Name: "HQ"}).Error)
	require.NoError(t, db.Create(&Store{ID: "b1", Name: "Branch 1", ParentStoreID: "hq"}).Error)
	require.NoError(t, db.Create(&Store{ID: "b2", Name: "Branch 2", ParentStoreID: "hq"}).Error)
	require.NoError(t, db.Create(&Store{ID: "other", Name: "Other"}).Error)

	group, err := svc.StoreGroup(ctx, "hq", false)
	require.NoError(t, err)
	require.Equal(t, []string{"hq"}, group)

	group, err = svc.StoreGroup(ctx, "hq", true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"hq", "b1", "b2"}, group)

	group, err = svc.StoreGroup(ctx, "ghost", true)
	require.NoError(t, err)
	require.Empty(t, group, "unknown store degrades to an empty group")
}

func TestEligible(t *testing.T) {
	require.True(t, (&Member{Role: RoleVendor, Status: StatusActive}).Eligible())
	require.False(t, (&Member{Role: RoleVendor, Status: StatusBlocked}).Eligible())
	require.False(t, (&Member{Role: RoleManager, Status: StatusActive}).Eligible())
}
