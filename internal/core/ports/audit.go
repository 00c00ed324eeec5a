package ports

import (
	"context"

	"github.com/webgate/authportal/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuthEvent)
}
