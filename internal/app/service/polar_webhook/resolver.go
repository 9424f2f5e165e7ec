package polar_webhook

import (
	"context"
	"strings"

	"github.com/fatflowers/polaradmin/internal/app/repository"
)

// UserResolver maps a provider email onto a local user id.
type UserResolver interface {
	// ResolveByEmail returns ok=false when no user matches.
	ResolveByEmail(ctx context.Context, email string) (userID string, ok bool, err error)
}

// EmailUserResolver matches the trimmed email exactly (case-sensitive) and
// picks the oldest user when several share it.
type EmailUserResolver struct {
	users repository.UserStore
}

func NewEmailUserResolver(users repository.UserStore) *EmailUserResolver {
	return &EmailUserResolver{users: users}
}

func (r *EmailUserResolver) ResolveByEmail(ctx context.Context, email string) (string, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", false, nil
	}
	found, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return "", false, err
	}
	if len(found) == 0 {
		return "", false, nil
	}
	return found[0].ID, true, nil
}
