package statistics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/pkg/types"
)

type StatisticType string

const (
	StatisticTypeTotalSubscriptions    StatisticType = "total_subscriptions"
	StatisticTypeSubscriptionsByStatus StatisticType = "subscriptions_by_status"
	StatisticTypeOrphanedSubscriptions StatisticType = "orphaned_subscriptions"
	// StatisticTypeMonthlyRecurringRevenue sums active subscriptions per
	// currency in minor units, yearly plans counted at 1/12.
	StatisticTypeMonthlyRecurringRevenue StatisticType = "mrr"
)

var AllStatisticTypes = []StatisticType{
	StatisticTypeTotalSubscriptions,
	StatisticTypeSubscriptionsByStatus,
	StatisticTypeOrphanedSubscriptions,
	StatisticTypeMonthlyRecurringRevenue,
}

type OverviewRequest struct {
	// DataItems selects statistics; empty means all.
	DataItems []StatisticType `json:"data_items" form:"data_items"`
}

type DataItem struct {
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type OverviewResponse struct {
	DataItems map[StatisticType][]DataItem `json:"data_items"`
}

// Service computes the analytics overview from the subscription store.
type Service struct {
	subs repository.SubscriptionStore
	gate permission.Gate
}

func New(subs repository.SubscriptionStore, gate permission.Gate) *Service {
	return &Service{subs: subs, gate: gate}
}

// Overview requires VIEW_ANALYTICS. Statistics are computed concurrently.
func (s *Service) Overview(ctx context.Context, actorID string, req OverviewRequest) (*OverviewResponse, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ViewAnalytics); err != nil {
		return nil, err
	}
	items := lo.Uniq(req.DataItems)
	if len(items) == 0 {
		items = AllStatisticTypes
	}
	for _, it := range items {
		if !lo.Contains(AllStatisticTypes, it) {
			return nil, fmt.Errorf("invalid data item id: %s", it)
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(items))
	resChan := make(chan *lo.Entry[StatisticType, []DataItem], len(items))
	for _, item := range items {
		wg.Add(1)
		go func(id StatisticType) {
			defer wg.Done()
			res, err := s.compute(ctx, id)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []DataItem]{Key: id, Value: res}
		}(item)
	}
	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]DataItem, len(items))
	for i := 0; i < len(items); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &OverviewResponse{DataItems: results}, nil
}

func (s *Service) compute(ctx context.Context, id StatisticType) ([]DataItem, error) {
	switch id {
	case StatisticTypeTotalSubscriptions:
		counts, err := s.subs.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		return []DataItem{{Value: lo.Sum(lo.Values(counts))}}, nil
	case StatisticTypeSubscriptionsByStatus:
		counts, err := s.subs.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]DataItem, 0, len(counts))
		for status, n := range counts {
			out = append(out, DataItem{Label: string(status), Value: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
		return out, nil
	case StatisticTypeOrphanedSubscriptions:
		n, err := s.subs.CountOrphaned(ctx)
		if err != nil {
			return nil, err
		}
		return []DataItem{{Value: n}}, nil
	case StatisticTypeMonthlyRecurringRevenue:
		return s.mrr(ctx)
	}
	return nil, fmt.Errorf("invalid data item id: %s", id)
}

func (s *Service) mrr(ctx context.Context) ([]DataItem, error) {
	active, err := s.subs.ListByStatus(ctx, types.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	byCurrency := map[string]int64{}
	for _, sub := range active {
		byCurrency[sub.Currency] += sub.Interval.Monthly(sub.Amount)
	}
	out := make([]DataItem, 0, len(byCurrency))
	for currency, v := range byCurrency {
		out = append(out, DataItem{Label: currency, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
