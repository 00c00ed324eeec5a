package ports

import (
	"context"

	"github.com/webgate/authportal/internal/core/domain"
)

// UserStore persists the full account list as a single unit.
type UserStore interface {
	// Load returns the current accounts. It never fails: a missing or
	// unreadable file yields an empty list.
	Load(ctx context.Context) []domain.Account
	// Save durably replaces the persisted list.
	Save(ctx context.Context, accounts []domain.Account) error
	// Update runs load, fn and save as one serialized step. fn returning an
	// error aborts the update without writing.
	Update(ctx context.Context, fn func([]domain.Account) ([]domain.Account, error)) error
}
