package filestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
)

// MessageStore appends contact messages to a JSON array file.
type MessageStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

func NewMessageStore(path string, log zerolog.Logger) *MessageStore {
	return &MessageStore{path: path, log: log}
}

// Append adds msg to the end of the file. A corrupt existing file is left
// untouched and the append fails.
func (s *MessageStore) Append(ctx context.Context, msg *domain.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	messages := []domain.ContactMessage{}
	if _, err := readJSON(s.path, &messages); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("could not read messages")
		return fmt.Errorf("load messages: %w", err)
	}

	messages = append(messages, *msg)
	if err := writeJSON(s.path, messages); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}
	return nil
}
