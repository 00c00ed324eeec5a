package ports

import (
	"context"

	"github.com/webgate/authportal/internal/core/domain"
)

// ContactInput carries a contact form submitted by a signed-in user.
type ContactInput struct {
	Name         string
	Email        string
	Message      string
	CaptchaToken string
	RemoteIP     string
	Sender       domain.Identity
}

// MessageRepository appends contact messages.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.ContactMessage) error
}

type ContactService interface {
	Submit(ctx context.Context, in ContactInput) (*domain.ContactMessage, error)
}
