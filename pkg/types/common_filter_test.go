package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommonFilter_Validate(t *testing.T) {
	allowed := map[string]bool{"status": true, "amount": true}

	require.NoError(t, (&CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}}).Validate(allowed))
	require.NoError(t, (&CommonFilter{Field: "status", Operator: CommonFilterOperatorIsNull}).Validate(allowed))
	require.Error(t, (&CommonFilter{Field: "status; drop table", Operator: CommonFilterOperatorEq, Values: []any{1}}).Validate(allowed))
	require.Error(t, (&CommonFilter{Field: "amount", Operator: CommonFilterOperatorRange, Values: []any{1}}).Validate(allowed))
	require.Error(t, (&CommonFilter{Field: "amount", Operator: "like", Values: []any{1}}).Validate(allowed))
	require.Error(t, (&CommonFilter{Field: "amount", Operator: CommonFilterOperatorGt}).Validate(allowed))
}

func TestCommonFilter_Match(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	row := map[string]any{
		"status":     "active",
		"amount":     int64(2000),
		"created_at": now,
		"user_id":    nil,
	}
	tests := []struct {
		name string
		f    CommonFilter
		want bool
	}{
		{"eq", CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}}, true},
		{"not_eq", CommonFilter{Field: "status", Operator: CommonFilterOperatorNotEq, Values: []any{"active"}}, false},
		{"gt json number", CommonFilter{Field: "amount", Operator: CommonFilterOperatorGt, Values: []any{float64(1000)}}, true},
		{"lte", CommonFilter{Field: "amount", Operator: CommonFilterOperatorLte, Values: []any{1999}}, false},
		{"range", CommonFilter{Field: "amount", Operator: CommonFilterOperatorRange, Values: []any{1000, 3000}}, true},
		{"in", CommonFilter{Field: "status", Operator: CommonFilterOperatorIn, Values: []any{"canceled", "active"}}, true},
		{"date_range", CommonFilter{Field: "created_at", Operator: CommonFilterOperatorDateRange, Values: []any{"2026-02-01T00:00:00Z", "2026-03-31T00:00:00Z"}}, true},
		{"date before", CommonFilter{Field: "created_at", Operator: CommonFilterOperatorLt, Values: []any{"2026-01-01T00:00:00Z"}}, false},
		{"is_null nil", CommonFilter{Field: "user_id", Operator: CommonFilterOperatorIsNull}, true},
		{"is_null missing", CommonFilter{Field: "other", Operator: CommonFilterOperatorIsNull}, true},
		{"is_null set", CommonFilter{Field: "status", Operator: CommonFilterOperatorIsNull}, false},
		{"eq on nil", CommonFilter{Field: "user_id", Operator: CommonFilterOperatorEq, Values: []any{"u1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.f.Match(row))
		})
	}

	all := FiltersAnd{
		{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}},
		{Field: "amount", Operator: CommonFilterOperatorGte, Values: []any{2000}},
	}
	require.True(t, all.MatchAll(row))
	require.False(t, append(all, &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"x"}}).MatchAll(row))
}
