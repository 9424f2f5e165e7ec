package types

type SubscriptionStatus string

// Known provider statuses. The provider may send others; they are stored verbatim.
const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusRevoked    SubscriptionStatus = "revoked"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
)

// Active reports whether the status counts as a paying subscription.
func (s SubscriptionStatus) Active() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// Monthly converts an amount billed at this interval to its monthly equivalent.
func (i BillingInterval) Monthly(amount int64) int64 {
	if i == BillingIntervalYear {
		return amount / 12
	}
	return amount
}

type SyncType string

const (
	SyncTypeSubscriptions SyncType = "subscriptions"
	SyncTypeCustomers     SyncType = "customers"
	SyncTypeAll           SyncType = "all"
)

func (t SyncType) Valid() bool {
	switch t {
	case SyncTypeSubscriptions, SyncTypeCustomers, SyncTypeAll:
		return true
	}
	return false
}

func (t SyncType) IncludesSubscriptions() bool {
	return t == SyncTypeSubscriptions || t == SyncTypeAll
}

func (t SyncType) IncludesCustomers() bool {
	return t == SyncTypeCustomers || t == SyncTypeAll
}
