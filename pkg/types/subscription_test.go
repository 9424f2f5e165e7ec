package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncType(t *testing.T) {
	tests := []struct {
		in                     SyncType
		valid, subs, customers bool
	}{
		{SyncTypeSubscriptions, true, true, false},
		{SyncTypeCustomers, true, false, true},
		{SyncTypeAll, true, true, true},
		{"products", false, false, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.valid, tt.in.Valid(), tt.in)
		require.Equal(t, tt.subs, tt.in.IncludesSubscriptions(), tt.in)
		require.Equal(t, tt.customers, tt.in.IncludesCustomers(), tt.in)
	}
}

func TestBillingInterval_Monthly(t *testing.T) {
	require.Equal(t, int64(1000), BillingIntervalMonth.Monthly(1000))
	require.Equal(t, int64(1000), BillingIntervalYear.Monthly(12000))
	require.Equal(t, int64(500), BillingInterval("").Monthly(500))
}
