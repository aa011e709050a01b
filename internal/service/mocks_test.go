package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/repository"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockClubRepo
type MockClubRepo struct {
	mock.Mock
}

func (m *MockClubRepo) Create(ctx context.Context, club *domain.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}
func (m *MockClubRepo) GetByID(ctx context.Context, id string) (*domain.Club, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Club), args.Error(1)
}
func (m *MockClubRepo) Update(ctx context.Context, club *domain.Club) error {
	args := m.Called(ctx, club)
	return args.Error(0)
}
func (m *MockClubRepo) List(ctx context.Context, status domain.ClubStatus) ([]domain.Club, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Club), args.Error(1)
}

// MockApprovalRepo
type MockApprovalRepo struct {
	mock.Mock
}

func (m *MockApprovalRepo) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockApprovalRepo) GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}
func (m *MockApprovalRepo) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockApprovalRepo) ListPending(ctx context.Context) ([]domain.ApprovalRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ApprovalRequest), args.Error(1)
}

// MockMembershipRepo
type MockMembershipRepo struct {
	mock.Mock
}

func (m *MockMembershipRepo) Create(ctx context.Context, mb *domain.Membership) error {
	args := m.Called(ctx, mb)
	return args.Error(0)
}
func (m *MockMembershipRepo) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) GetByUserAndClub(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	args := m.Called(ctx, userID, clubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) Update(ctx context.Context, mb *domain.Membership) error {
	args := m.Called(ctx, mb)
	return args.Error(0)
}
func (m *MockMembershipRepo) ListApprovedByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) ListByClub(ctx context.Context, clubID string, status domain.MembershipStatus) ([]domain.Membership, error) {
	args := m.Called(ctx, clubID, status)
	return args.Get(0).([]domain.Membership), args.Error(1)
}
func (m *MockMembershipRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// MockEventRepo
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}
func (m *MockEventRepo) Update(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRSVPRepo
type MockRSVPRepo struct {
	mock.Mock
}

func (m *MockRSVPRepo) GetConfirmed(ctx context.Context, eventID, userID string) (*domain.RSVP, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RSVP), args.Error(1)
}
func (m *MockRSVPRepo) CreateConfirmed(ctx context.Context, rv *domain.RSVP) error {
	args := m.Called(ctx, rv)
	return args.Error(0)
}
func (m *MockRSVPRepo) Cancel(ctx context.Context, eventID, userID string) error {
	args := m.Called(ctx, eventID, userID)
	return args.Error(0)
}
func (m *MockRSVPRepo) CountConfirmed(ctx context.Context, eventID string) (int32, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockRSVPRepo) ListDuplicateConfirmed(ctx context.Context) ([]domain.RSVP, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RSVP), args.Error(1)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
func (m *MockOrderRepo) GetLive(ctx context.Context, eventID, userID string) (*domain.Order, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
func (m *MockOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Order), args.Error(1)
}

// MockTicketRepo
type MockTicketRepo struct {
	mock.Mock
}

func (m *MockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}
func (m *MockTicketRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}
func (m *MockTicketRepo) IssueForOrder(ctx context.Context, orderID, actorID string) (*repository.IssuanceResult, error) {
	args := m.Called(ctx, orderID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.IssuanceResult), args.Error(1)
}
func (m *MockTicketRepo) CheckIn(ctx context.Context, ticketID, checkerID string, at time.Time) error {
	args := m.Called(ctx, ticketID, checkerID, at)
	return args.Error(0)
}
func (m *MockTicketRepo) CountByEvent(ctx context.Context, eventID string) (int32, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int32), args.Error(1)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockClaimsRepo
type MockClaimsRepo struct {
	mock.Mock
}

func (m *MockClaimsRepo) Get(ctx context.Context, userID string) (*domain.AuthorizationClaims, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationClaims), args.Error(1)
}
func (m *MockClaimsRepo) Upsert(ctx context.Context, claims *domain.AuthorizationClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderStatusChanged(ctx context.Context, event events.OrderStatusChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockPublisher) PublishMembershipChanged(ctx context.Context, event events.MembershipChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockClaimsPublisher
type MockClaimsPublisher struct {
	mock.Mock
}

func (m *MockClaimsPublisher) Publish(ctx context.Context, claims *domain.AuthorizationClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendOrderDecision(ctx context.Context, to, eventName string, status domain.OrderStatus, reason string) error {
	args := m.Called(ctx, to, eventName, status, reason)
	return args.Error(0)
}
func (m *MockEmailSender) SendTicketsIssued(ctx context.Context, to, eventName string, count int) error {
	args := m.Called(ctx, to, eventName, count)
	return args.Error(0)
}
func (m *MockEmailSender) SendMembershipDecision(ctx context.Context, to, clubName string, status domain.MembershipStatus) error {
	args := m.Called(ctx, to, clubName, status)
	return args.Error(0)
}

// MockGuard
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Evaluate(ctx context.Context, actor Actor, eventID, ticketTypeID string, evalCtx domain.EligibilityContext) domain.EligibilityDecision {
	args := m.Called(ctx, actor, eventID, ticketTypeID, evalCtx)
	return args.Get(0).(domain.EligibilityDecision)
}

// recordingAuditor captures audit actions without a database.
type recordingAuditor struct {
	actions []string
}

func (a *recordingAuditor) Record(ctx context.Context, actorID, action, targetCollection, targetID string, metadata map[string]string) {
	a.actions = append(a.actions, action)
}
