package domain

import "time"

type RSVPStatus string

const (
	RSVPStatusConfirmed RSVPStatus = "CONFIRMED"
	RSVPStatusCanceled  RSVPStatus = "CANCELED"
)

// RSVP is a free-attendance claim. At most one CONFIRMED record may
// exist per (user, event).
type RSVP struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Status    RSVPStatus `json:"status"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
}
