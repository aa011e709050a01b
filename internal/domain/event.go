package domain

import "time"

type EventStatus string

const (
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusCanceled EventStatus = "CANCELED"
)

type EventVisibility string

const (
	EventVisibilityPublic  EventVisibility = "PUBLIC"
	EventVisibilityCampus  EventVisibility = "CAMPUS"
	EventVisibilityMembers EventVisibility = "MEMBERS"
)

type PaymentMode string

const (
	PaymentModeFree    PaymentMode = "FREE"
	PaymentModeManaged PaymentMode = "MANAGED"
)

// TicketType is a named admission class on an event with its own
// capacity accounting. Capacity nil means unlimited.
type TicketType struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	Name           string `json:"name"`
	UnitPriceCents int32  `json:"unit_price_cents"`
	Capacity       *int32 `json:"capacity,omitempty"`
	Sold           int32  `json:"sold"`
}

type Event struct {
	ID          string          `json:"id"`
	ClubID      string          `json:"club_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Visibility  EventVisibility `json:"visibility"`
	// University ids allowed to join CAMPUS events. Empty means any.
	AllowedUniversities []string    `json:"allowed_universities,omitempty"`
	Status              EventStatus `json:"status"`
	StartsOn            time.Time   `json:"starts_on"`
	EndsOn              *time.Time  `json:"ends_on,omitempty"`
	RSVPOpensOn         *time.Time  `json:"rsvp_opens_on,omitempty"`
	RSVPClosesOn        *time.Time  `json:"rsvp_closes_on,omitempty"`
	// Event-level capacity. Nil means unlimited. Governs flat-capacity
	// RSVP admission; ticket types carry their own capacity.
	Capacity         *int32       `json:"capacity,omitempty"`
	TicketsSoldCount int32        `json:"tickets_sold_count"`
	PaymentMode      PaymentMode  `json:"payment_mode"`
	TicketTypes      []TicketType `json:"ticket_types,omitempty"`
	CreatedOn        time.Time    `json:"created_on"`
	UpdatedOn        time.Time    `json:"updated_on"`
}

// TicketTypeByID returns the named ticket type, or nil when the event
// does not carry it.
func (e *Event) TicketTypeByID(id string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].ID == id {
			return &e.TicketTypes[i]
		}
	}
	return nil
}

// Ended reports whether the event's end instant has passed. Events
// without an end instant never report ended.
func (e *Event) Ended(now time.Time) bool {
	return e.EndsOn != nil && e.EndsOn.Before(now)
}
