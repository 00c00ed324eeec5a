package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
)

var _ ports.AuditRepository = (*AuditRepository)(nil)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureIndexes creates the lookup index used when investigating an account.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("email_occurred_at"),
	})
	if err != nil {
		return fmt.Errorf("create audit index: %w", err)
	}
	return nil
}

// InsertEvent persists an auth event to the auth_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"_id":         event.ID,
		"kind":        string(event.Kind),
		"outcome":     event.Outcome,
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.RemoteIP != "" {
		doc["remote_ip"] = event.RemoteIP
	}

	_, err := r.db.Collection(auditCollection).InsertOne(ctx, doc)
	return err
}
