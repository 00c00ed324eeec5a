package domain

import "time"

// ContactMessage is a sanitized contact-form submission.
type ContactMessage struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Message   string    `json:"message" bson:"message"`
	SenderID  string    `json:"sender,omitempty" bson:"sender,omitempty"`
	CreatedAt time.Time `json:"date" bson:"date"`
}
