package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusAwaitingReview OrderStatus = "AWAITING_REVIEW"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusApproved       OrderStatus = "APPROVED"
	OrderStatusRejected       OrderStatus = "REJECTED"
)

// RejectReasonCapacity marks orders rejected inside the issuance
// transaction because capacity ran out after payment.
const RejectReasonCapacity = "capacity_reached"

// LiveOrderStatuses are the states in which an order still counts as
// an admission intent for duplicate checks.
var LiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingReview,
	OrderStatusApproved,
	OrderStatusPaid,
}

// Order is a paid-attendance intent. Status moves forward only:
// PENDING -> AWAITING_REVIEW -> {APPROVED, REJECTED}, or the direct
// PENDING -> PAID path for flows without manual review. APPROVED and
// PAID feed the ticket-issuance transaction.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	EventID        string      `json:"event_id"`
	ClubID         string      `json:"club_id"`
	TicketTypeID   *string     `json:"ticket_type_id,omitempty"`
	Quantity       int32       `json:"quantity"`
	UnitPriceCents int32       `json:"unit_price_cents"`
	TotalCents     int32       `json:"total_cents"`
	Status         OrderStatus `json:"status"`
	RejectReason   string      `json:"reject_reason,omitempty"`
	ReceiptURL     string      `json:"receipt_url,omitempty"`
	ReviewedBy     *string     `json:"reviewed_by,omitempty"`
	ReviewedOn     *time.Time  `json:"reviewed_on,omitempty"`
	CreatedOn      time.Time   `json:"created_on"`
	UpdatedOn      time.Time   `json:"updated_on"`
}

// CanTransitionTo enforces the forward-only order state machine.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusAwaitingReview || next == OrderStatusPaid || next == OrderStatusRejected
	case OrderStatusAwaitingReview:
		return next == OrderStatusApproved || next == OrderStatusRejected
	case OrderStatusPaid:
		// capacity_reached rejection is reachable after payment.
		return next == OrderStatusRejected
	default:
		return false
	}
}
