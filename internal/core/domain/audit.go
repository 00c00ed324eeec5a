package domain

import "time"

// AuthEventKind names what happened.
type AuthEventKind string

const (
	EventRegister AuthEventKind = "register"
	EventLogin    AuthEventKind = "login"
	EventLogout   AuthEventKind = "logout"
	EventContact  AuthEventKind = "contact"
)

// AuthEvent is one entry of the authentication audit trail.
// Outcome is "ok" or a short failure reason such as "bad_password".
type AuthEvent struct {
	ID         string        `json:"id" bson:"_id"`
	Kind       AuthEventKind `json:"kind" bson:"kind"`
	Outcome    string        `json:"outcome" bson:"outcome"`
	Email      string        `json:"email,omitempty" bson:"email,omitempty"`
	RemoteIP   string        `json:"remote_ip,omitempty" bson:"remote_ip,omitempty"`
	OccurredAt time.Time     `json:"occurred_at" bson:"occurred_at"`
}
