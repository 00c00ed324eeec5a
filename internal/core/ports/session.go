package ports

import "github.com/webgate/authportal/internal/core/domain"

// SessionManager owns the server-side session table.
type SessionManager interface {
	Create(identity domain.Identity) (string, error)
	Validate(token string) (domain.Identity, bool)
	Destroy(token string)
}
