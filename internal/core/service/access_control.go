package service

import (
	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
)

// AccessControl decides whether a session token grants access to a protected
// resource. What to do on deny (redirect, 401) is left to the caller.
type AccessControl struct {
	sessions ports.SessionManager
}

func NewAccessControl(sessions ports.SessionManager) *AccessControl {
	return &AccessControl{sessions: sessions}
}

// Authorize allows the request iff token maps to a live session.
func (a *AccessControl) Authorize(token string) (domain.Identity, bool) {
	if token == "" {
		return domain.Identity{}, false
	}
	return a.sessions.Validate(token)
}
