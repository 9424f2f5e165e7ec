package memrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/types"
)

func TestSubscriptions_CreateOncePerPolarID(t *testing.T) {
	ctx := context.Background()
	st := New().Subscriptions()

	require.NoError(t, st.Create(ctx, &models.Subscription{PolarID: "sub_1", Status: types.SubscriptionStatusActive}))
	err := st.Create(ctx, &models.Subscription{PolarID: "sub_1"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := st.GetByPolarID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)

	_, err = st.GetByPolarID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubscriptions_ListFiltersSortsAndPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.Subscriptions()
	for i, amount := range []int64{500, 1500, 2500, 3500} {
		require.NoError(t, st.Create(ctx, &models.Subscription{
			PolarID: string(rune('a' + i)),
			Amount:  amount,
			Status:  types.SubscriptionStatusActive,
		}))
	}

	rows, total, err := st.List(ctx, repository.ListQuery{
		Filters: types.FiltersAnd{{Field: "amount", Operator: types.CommonFilterOperatorGte, Values: []any{float64(1500)}}},
		SortBy:  "amount",
		Size:    2,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	require.EqualValues(t, 3500, rows[0].Amount)
	require.EqualValues(t, 2500, rows[1].Amount)
}

func TestFailOn_MatchesKey(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailOn(OpSubscriptionCreate, "sub_5", boom)

	require.NoError(t, s.Subscriptions().Create(ctx, &models.Subscription{PolarID: "sub_4"}))
	require.ErrorIs(t, s.Subscriptions().Create(ctx, &models.Subscription{PolarID: "sub_5"}), boom)
}

func TestSubscriptions_AssignOrphans(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := "u_9"
	require.NoError(t, s.Subscriptions().Create(ctx, &models.Subscription{PolarID: "a", CustomerID: "cus_1"}))
	require.NoError(t, s.Subscriptions().Create(ctx, &models.Subscription{PolarID: "b", CustomerID: "cus_1", UserID: &owner}))
	require.NoError(t, s.Subscriptions().Create(ctx, &models.Subscription{PolarID: "c", CustomerID: "cus_2"}))

	n, err := s.Subscriptions().AssignOrphans(ctx, "cus_1", "u_1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, _ := s.Subscriptions().GetByPolarID(ctx, "a")
	require.Equal(t, "u_1", *got.UserID)
	got, _ = s.Subscriptions().GetByPolarID(ctx, "b")
	require.Equal(t, "u_9", *got.UserID)
}
