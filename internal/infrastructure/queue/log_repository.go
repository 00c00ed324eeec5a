package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
)

// LogRepository writes audit events to the application log. It is used when
// no database is configured.
type LogRepository struct {
	log zerolog.Logger
}

func NewLogRepository(log zerolog.Logger) *LogRepository {
	return &LogRepository{log: log}
}

func (r *LogRepository) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	r.log.Info().
		Str("audit_id", event.ID).
		Str("kind", string(event.Kind)).
		Str("outcome", event.Outcome).
		Str("email", event.Email).
		Str("remote_ip", event.RemoteIP).
		Time("occurred_at", event.OccurredAt).
		Msg("audit")
	return nil
}
