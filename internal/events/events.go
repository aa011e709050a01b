package events

import "clubhub-backend/internal/domain"

// OrderStatusChanged is emitted whenever an order's status field
// changes. The worker reacts to paid-equivalent transitions by running
// the ticket-issuance transaction; redelivery is expected and the
// issuance step is idempotent.
type OrderStatusChanged struct {
	OrderID string             `json:"order_id"`
	Before  domain.OrderStatus `json:"before"`
	After   domain.OrderStatus `json:"after"`
	ActorID string             `json:"actor_id"`
}

// PaidEquivalent reports whether the transition should trigger ticket
// issuance.
func (e OrderStatusChanged) PaidEquivalent() bool {
	if e.Before == e.After {
		return false
	}
	return e.After == domain.OrderStatusPaid || e.After == domain.OrderStatusApproved
}

// MembershipChanged is emitted on every membership write. The worker
// reacts by recomputing the subject user's derived claims.
type MembershipChanged struct {
	MembershipID string             `json:"membership_id"`
	UserID       string             `json:"user_id"`
	ClubID       string             `json:"club_id"`
	Before       *domain.Membership `json:"before,omitempty"`
	After        *domain.Membership `json:"after"`
}
