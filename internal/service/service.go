// Package service holds the business rules: the eligibility guard,
// the rsvp/order admission flows, claims synchronization, the club
// approval reactor and the supporting account and club services.
// Services return gRPC status errors; the HTTP layer maps the status
// code onto the response.
package service

import (
	"context"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
)

// Actor identifies the authenticated caller together with the claims
// snapshot embedded in their access token. The snapshot is a cache:
// services use it as a fast positive signal and fall back to direct
// membership reads for security-relevant denials.
type Actor struct {
	UserID string
	Claims *domain.AuthorizationClaims
}

// EligibilityService answers "may this user join this event on this
// path" without side effects. Evaluate never returns an error;
// datastore failures surface as a server_error denial.
type EligibilityService interface {
	Evaluate(ctx context.Context, actor Actor, eventID, ticketTypeID string, evalCtx domain.EligibilityContext) domain.EligibilityDecision
}

// OrderDecisionResult reports the outcome of an order transition that
// may have issued tickets.
type OrderDecisionResult struct {
	Order     *domain.Order
	TicketIDs []string
}

// AdmissionService owns the rsvp and order admission flows, ticket
// issuance and check-in.
type AdmissionService interface {
	Rsvp(ctx context.Context, actor Actor, eventID string) (*domain.RSVP, error)
	CancelRsvp(ctx context.Context, actor Actor, eventID string) error
	CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*domain.Order, error)
	SubmitReceipt(ctx context.Context, actor Actor, orderID, receiptURL string) (*domain.Order, error)
	// MarkPaid records an external payment confirmation and issues the
	// tickets synchronously.
	MarkPaid(ctx context.Context, actor Actor, orderID string) (*OrderDecisionResult, error)
	ReviewOrder(ctx context.Context, actor Actor, input ReviewOrderInput) (*OrderDecisionResult, error)
	GetOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error)
	// HandleOrderStatusChanged is the bus-driven issuance trigger. It
	// re-runs issuance for paid-equivalent transitions; the underlying
	// transaction is idempotent, so redelivery is safe.
	HandleOrderStatusChanged(ctx context.Context, event events.OrderStatusChanged) error
	CheckInTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error)
	// TicketQR renders the ticket id as a base64 PNG QR code for the
	// ticket holder.
	TicketQR(ctx context.Context, actor Actor, ticketID string) (string, error)
	ListTickets(ctx context.Context, actor Actor, orderID string) ([]domain.Ticket, error)
}

type CreateOrderInput struct {
	EventID      string
	TicketTypeID string
	Quantity     int32
}

type ReviewOrderInput struct {
	OrderID string
	Approve bool
	Note    string
}

// ClaimsSyncService recomputes a user's derived authorization claims
// from their approved memberships.
type ClaimsSyncService interface {
	// SyncUser recomputes and stores the claims. The boolean reports
	// whether anything changed; no-op recomputations skip the write.
	SyncUser(ctx context.Context, userID string) (*domain.AuthorizationClaims, bool, error)
	HandleMembershipChanged(ctx context.Context, event events.MembershipChanged) error
	// ResyncAll sweeps every user holding memberships and returns the
	// number of users whose claims were out of date.
	ResyncAll(ctx context.Context) (int, error)
}

// ApprovalService tracks club activation requests and reacts to
// approval by flipping the target club to ACTIVE.
type ApprovalService interface {
	Submit(ctx context.Context, actor Actor, clubID, note string) (*domain.ApprovalRequest, error)
	Decide(ctx context.Context, actor Actor, requestID string, approve bool, note string) (*domain.ApprovalRequest, error)
	ListPending(ctx context.Context, actor Actor) ([]domain.ApprovalRequest, error)
}

type ClubService interface {
	Create(ctx context.Context, actor Actor, input CreateClubInput) (*domain.Club, error)
	Get(ctx context.Context, clubID string) (*domain.Club, error)
	List(ctx context.Context, status domain.ClubStatus) ([]domain.Club, error)
}

type CreateClubInput struct {
	Name         string
	Description  string
	UniversityID string
}

type MembershipService interface {
	RequestToJoin(ctx context.Context, actor Actor, clubID string) (*domain.Membership, error)
	Review(ctx context.Context, actor Actor, membershipID string, approve bool) (*domain.Membership, error)
	Leave(ctx context.Context, actor Actor, clubID string) error
	SetBanned(ctx context.Context, actor Actor, membershipID string, banned bool) (*domain.Membership, error)
	SetDuesStatus(ctx context.Context, actor Actor, membershipID string, dues domain.DuesStatus) (*domain.Membership, error)
	ListByClub(ctx context.Context, actor Actor, clubID string, status domain.MembershipStatus) ([]domain.Membership, error)
}

type EventService interface {
	Create(ctx context.Context, actor Actor, input CreateEventInput) (*domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Cancel(ctx context.Context, actor Actor, eventID string) (*domain.Event, error)
}

type CreateEventInput struct {
	ClubID              string
	Name                string
	Description         string
	Visibility          domain.EventVisibility
	AllowedUniversities []string
	StartsOn            string
	EndsOn              string
	RSVPOpensOn         string
	RSVPClosesOn        string
	Capacity            *int32
	PaymentMode         domain.PaymentMode
	TicketTypes         []CreateTicketTypeInput
}

type CreateTicketTypeInput struct {
	Name           string
	UnitPriceCents int32
	Capacity       *int32
}

// AuthResult carries the signed tokens plus the user they belong to.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
}

type SignupInput struct {
	Email         string
	Name          string
	Password      string
	UniversityIDs []string
}

// EmailSender delivers user-facing notifications. Implementations are
// best-effort; callers log failures and move on.
type EmailSender interface {
	SendOrderDecision(ctx context.Context, to, eventName string, status domain.OrderStatus, reason string) error
	SendTicketsIssued(ctx context.Context, to, eventName string, count int) error
	SendMembershipDecision(ctx context.Context, to, clubName string, status domain.MembershipStatus) error
}

// Auditor appends audit rows. Recording never fails the caller's
// operation; write errors are logged inside the implementation.
type Auditor interface {
	Record(ctx context.Context, actorID, action, targetCollection, targetID string, metadata map[string]string)
}
