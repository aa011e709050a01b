package domain

import "time"

type TicketStatus string

const (
	TicketStatusValid TicketStatus = "VALID"
	TicketStatusUsed  TicketStatus = "USED"
)

// Ticket is proof of admission, one per unit purchased. Created
// exactly once per paid order-unit; VALID -> USED is the only
// transition and it is irreversible.
type Ticket struct {
	ID           string       `json:"id"`
	OrderID      string       `json:"order_id"`
	EventID      string       `json:"event_id"`
	ClubID       string       `json:"club_id"`
	UserID       string       `json:"user_id"`
	TicketTypeID *string      `json:"ticket_type_id,omitempty"`
	Status       TicketStatus `json:"status"`
	CheckedInOn  *time.Time   `json:"checked_in_on,omitempty"`
	CheckedInBy  *string      `json:"checked_in_by,omitempty"`
	CreatedOn    time.Time    `json:"created_on"`
}
