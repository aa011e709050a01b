package repository

import (
	"context"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
)

// Sentinel errors shared by all repository implementations. Services
// translate these into caller-visible status codes.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrCapacityReached = errors.New("capacity reached")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ClubRepository interface {
	Create(ctx context.Context, club *domain.Club) error
	GetByID(ctx context.Context, id string) (*domain.Club, error)
	Update(ctx context.Context, club *domain.Club) error
	List(ctx context.Context, status domain.ClubStatus) ([]domain.Club, error)
}

type ApprovalRequestRepository interface {
	Create(ctx context.Context, req *domain.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error)
	Update(ctx context.Context, req *domain.ApprovalRequest) error
	ListPending(ctx context.Context) ([]domain.ApprovalRequest, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, m *domain.Membership) error
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	// GetByUserAndClub returns the single membership record for the
	// pair regardless of status, or ErrNotFound.
	GetByUserAndClub(ctx context.Context, userID, clubID string) (*domain.Membership, error)
	Update(ctx context.Context, m *domain.Membership) error
	ListApprovedByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	ListByClub(ctx context.Context, clubID string, status domain.MembershipStatus) ([]domain.Membership, error)
	// ListUserIDs returns the ids of every user holding at least one
	// membership record, for the claims resync sweep.
	ListUserIDs(ctx context.Context) ([]string, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	// GetByID returns the event with its ticket types populated.
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
}

type RSVPRepository interface {
	// GetConfirmed returns the user's CONFIRMED rsvp for the event, or
	// ErrNotFound.
	GetConfirmed(ctx context.Context, eventID, userID string) (*domain.RSVP, error)
	// CreateConfirmed inserts a CONFIRMED rsvp inside a transaction
	// that locks the event row and re-checks flat capacity (confirmed
	// rsvps + sold tickets). Returns ErrCapacityReached when the event
	// is full and ErrDuplicate when a confirmed rsvp already exists.
	CreateConfirmed(ctx context.Context, rsvp *domain.RSVP) error
	// Cancel flips a CONFIRMED rsvp to CANCELED. ErrNotFound when no
	// confirmed rsvp exists.
	Cancel(ctx context.Context, eventID, userID string) error
	CountConfirmed(ctx context.Context, eventID string) (int32, error)
	// ListDuplicateConfirmed reports (event, user) pairs holding more
	// than one confirmed rsvp, for the reconciliation job.
	ListDuplicateConfirmed(ctx context.Context) ([]domain.RSVP, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetLive returns the user's order for the event in a live status
	// (pending, awaiting review, approved, paid), or ErrNotFound.
	GetLive(ctx context.Context, eventID, userID string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	// ListStalePending returns pending orders created before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
}

// IssuanceResult reports the outcome of the ticket-issuance
// transaction for one order.
type IssuanceResult struct {
	Order          *domain.Order
	Tickets        []domain.Ticket
	AlreadyIssued  bool
	CapacityFailed bool
}

type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Ticket, error)
	// IssueForOrder runs the capacity-checked issuance transaction:
	// it locks the order and its capacity scope, no-ops when tickets
	// already exist for the order, rejects the order with
	// capacity_reached when the scope is exhausted, and otherwise
	// creates one ticket per unit, bumps the sold counters and appends
	// the audit row, all inside one transaction.
	IssueForOrder(ctx context.Context, orderID, actorID string) (*IssuanceResult, error)
	// CheckIn transitions a VALID ticket to USED exactly once.
	// ErrNotFound when the ticket is absent or already used.
	CheckIn(ctx context.Context, ticketID, checkerID string, at time.Time) error
	CountByEvent(ctx context.Context, eventID string) (int32, error)
}

type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
}

type ClaimsRepository interface {
	// Get returns the stored claims for the user; a user with no row
	// yet gets empty (not nil) maps.
	Get(ctx context.Context, userID string) (*domain.AuthorizationClaims, error)
	Upsert(ctx context.Context, claims *domain.AuthorizationClaims) error
}
