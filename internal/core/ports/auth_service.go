package ports

import (
	"context"

	"github.com/webgate/authportal/internal/core/domain"
)

// RegisterInput carries a registration form. Password is consumed by the call.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	CaptchaToken string
	RemoteIP     string
}

// LoginInput carries a login form.
type LoginInput struct {
	Email        string
	Password     string
	CaptchaToken string
	RemoteIP     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, in LoginInput) (*domain.Identity, error)
	Logout(ctx context.Context, identity domain.Identity, remoteIP string)
}
