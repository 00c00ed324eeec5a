package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
)

const messagesCollection = "contact_messages"

// MessageRepository implements ports.MessageRepository using MongoDB.
type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) ports.MessageRepository {
	return &MessageRepository{coll: db.Collection(messagesCollection)}
}

// Append inserts msg as is; its bson tags match the JSON file layout, with
// the timestamp stored as a BSON date under "date".
func (r *MessageRepository) Append(ctx context.Context, msg *domain.ContactMessage) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}
