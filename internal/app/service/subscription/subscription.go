package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fatflowers/polaradmin/internal/app/repository"
	"github.com/fatflowers/polaradmin/internal/app/service/audit"
	"github.com/fatflowers/polaradmin/internal/app/service/permission"
	"github.com/fatflowers/polaradmin/internal/models"
	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/types"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUserNotFound   = errors.New("user not found")
)

// Service is the admin view over local subscriptions.
type Service struct {
	subs  repository.SubscriptionStore
	users repository.UserStore
	gate  permission.Gate
	audit *audit.Service
	log   *zap.SugaredLogger
}

func NewService(subs repository.SubscriptionStore, users repository.UserStore, gate permission.Gate, auditSvc *audit.Service, log *zap.SugaredLogger) *Service {
	return &Service{subs: subs, users: users, gate: gate, audit: auditSvc, log: log}
}

// Scan subscriptions request/response.
type ScanSubscriptionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanSubscriptionsResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}

// ScanSubscriptions implements paginated admin listing with filters.
func (s *Service) ScanSubscriptions(ctx context.Context, actorID string, req *ScanSubscriptionsRequest) (*ScanSubscriptionsResponse, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ViewSubscriptions); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	for _, f := range req.Filters {
		if err := f.Validate(repository.SubscriptionColumns); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if req.SortBy != "" && !repository.SubscriptionColumns[req.SortBy] {
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidRequest, req.SortBy)
	}

	rows, total, err := s.subs.List(ctx, repository.ListQuery{
		Filters:   types.FiltersAnd(req.Filters),
		From:      req.From,
		Size:      req.Size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return &ScanSubscriptionsResponse{Items: rows, Total: total}, nil
}

type AssignUserRequest struct {
	PolarID string `json:"polar_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

// AssignUser links a subscription to a local user by hand. It requires
// MANAGE_SUBSCRIPTIONS and is audited with the previous owner.
func (s *Service) AssignUser(ctx context.Context, actorID string, req AssignUserRequest) (*models.Subscription, error) {
	if _, err := s.gate.RequireAdminPermission(ctx, actorID, permission.ManageSubscriptions); err != nil {
		return nil, err
	}
	polarID := strings.TrimSpace(req.PolarID)
	userID := strings.TrimSpace(req.UserID)
	if polarID == "" || userID == "" {
		return nil, fmt.Errorf("%w: polar_id and user_id are required", ErrInvalidRequest)
	}

	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}
	sub, err := s.subs.GetByPolarID(ctx, polarID)
	if err != nil {
		return nil, err
	}

	var previous string
	if sub.UserID != nil {
		previous = *sub.UserID
	}
	sub.UserID = &userID
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_user_assigned", "polar_id", polarID, "user_id", userID, "previous_user_id", previous)
	_ = s.audit.Record(ctx, audit.Entry{
		Action:     models.AuditActionSubscriptionUserAssigned,
		ActorID:    actorID,
		TargetType: "subscription",
		TargetID:   polarID,
		Details: map[string]any{
			"userId":         userID,
			"previousUserId": previous,
		},
	})
	return sub, nil
}
