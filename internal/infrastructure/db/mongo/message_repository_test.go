package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/webgate/authportal/internal/core/domain"
)

func TestContactMessageDocumentShape(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(&domain.ContactMessage{
		ID:        "01HX",
		Name:      "Alice",
		Email:     "a@x.io",
		Message:   "hello",
		SenderID:  "a@x.io",
		CreatedAt: created,
	})
	require.NoError(t, err)

	doc := bson.Raw(raw)
	assert.Equal(t, "01HX", doc.Lookup("_id").StringValue())
	assert.Equal(t, "a@x.io", doc.Lookup("sender").StringValue())

	date := doc.Lookup("date")
	require.Equal(t, bsontype.DateTime, date.Type)
	assert.True(t, created.Equal(date.Time()))

	_, err = doc.LookupErr("created_at")
	assert.Error(t, err)
}
