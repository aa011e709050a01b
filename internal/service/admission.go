package service

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

// maxOrderQuantity bounds a single order; larger group purchases go
// through separate orders.
const maxOrderQuantity = 10

type admissionService struct {
	guard          EligibilityService
	eventRepo      repository.EventRepository
	rsvpRepo       repository.RSVPRepository
	orderRepo      repository.OrderRepository
	ticketRepo     repository.TicketRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	publisher      events.Publisher
	email          EmailSender
	auditor        Auditor
	now            func() time.Time
}

// NewAdmissionService wires the admission flows. The guard pre-checks
// are advisory; capacity is only enforced by the issuance transaction
// in the ticket repository and by the locked insert in the rsvp
// repository.
func NewAdmissionService(
	guard EligibilityService,
	eventRepo repository.EventRepository,
	rsvpRepo repository.RSVPRepository,
	orderRepo repository.OrderRepository,
	ticketRepo repository.TicketRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	email EmailSender,
	auditor Auditor,
) AdmissionService {
	return &admissionService{
		guard:          guard,
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		orderRepo:      orderRepo,
		ticketRepo:     ticketRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		email:          email,
		auditor:        auditor,
		now:            time.Now,
	}
}

func (s *admissionService) Rsvp(ctx context.Context, actor Actor, eventID string) (*domain.RSVP, error) {
	decision := s.guard.Evaluate(ctx, actor, eventID, "", domain.ContextRSVP)
	if !decision.Allowed {
		return nil, &DecisionError{Decision: decision}
	}

	now := s.now().UTC()
	rsvp := &domain.RSVP{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    actor.UserID,
		Status:    domain.RSVPStatusConfirmed,
		CreatedOn: now,
		UpdatedOn: now,
	}
	// The locked insert re-checks capacity and the unique confirmed
	// constraint; a race lost between guard and insert surfaces here.
	if err := s.rsvpRepo.CreateConfirmed(ctx, rsvp); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, &DecisionError{Decision: domain.Deny(domain.CodeAlreadyJoined, "already holding a confirmed rsvp")}
		case errors.Is(err, repository.ErrCapacityReached):
			return nil, &DecisionError{Decision: domain.Deny(domain.CodeCapacityReached, "event is at capacity")}
		default:
			logger.ErrorContext(ctx, "failed to create rsvp", "event_id", eventID, "error", err)
			return nil, status.Error(codes.Internal, "failed to create rsvp")
		}
	}

	s.auditor.Record(ctx, actor.UserID, "rsvp.created", "rsvps", rsvp.ID, map[string]string{"event_id": eventID})
	return rsvp, nil
}

func (s *admissionService) CancelRsvp(ctx context.Context, actor Actor, eventID string) error {
	if err := s.rsvpRepo.Cancel(ctx, eventID, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status.Error(codes.NotFound, "no confirmed rsvp for this event")
		}
		logger.ErrorContext(ctx, "failed to cancel rsvp", "event_id", eventID, "error", err)
		return status.Error(codes.Internal, "failed to cancel rsvp")
	}

	s.auditor.Record(ctx, actor.UserID, "rsvp.canceled", "rsvps", eventID, map[string]string{"event_id": eventID})
	return nil
}

func (s *admissionService) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*domain.Order, error) {
	if input.Quantity < 1 {
		return nil, status.Error(codes.InvalidArgument, "quantity must be at least 1")
	}
	if input.Quantity > maxOrderQuantity {
		return nil, status.Errorf(codes.InvalidArgument, "quantity must be at most %d", maxOrderQuantity)
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "event not found")
		}
		return nil, status.Error(codes.Internal, "failed to load event")
	}

	decision := s.guard.Evaluate(ctx, actor, input.EventID, input.TicketTypeID, domain.ContextOrder)
	if !decision.Allowed {
		return nil, &DecisionError{Decision: decision}
	}

	var ticketTypeID *string
	var unitPrice int32
	if input.TicketTypeID != "" {
		tt := event.TicketTypeByID(input.TicketTypeID)
		if tt == nil {
			return nil, status.Error(codes.InvalidArgument, "unknown ticket type for this event")
		}
		ticketTypeID = &tt.ID
		unitPrice = tt.UnitPriceCents
	}

	total := int64(unitPrice) * int64(input.Quantity)
	if total > math.MaxInt32 {
		return nil, status.Error(codes.InvalidArgument, "order total too large")
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:             uuid.NewString(),
		UserID:         actor.UserID,
		EventID:        event.ID,
		ClubID:         event.ClubID,
		TicketTypeID:   ticketTypeID,
		Quantity:       input.Quantity,
		UnitPriceCents: unitPrice,
		TotalCents:     int32(total),
		Status:         domain.OrderStatusPending,
		CreatedOn:      now,
		UpdatedOn:      now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DecisionError{Decision: domain.Deny(domain.CodeAlreadyJoined, "already holding a live order")}
		}
		logger.ErrorContext(ctx, "failed to create order", "event_id", event.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to create order")
	}

	s.auditor.Record(ctx, actor.UserID, "order.created", "orders", order.ID, map[string]string{
		"event_id": event.ID,
		"quantity": strconv.Itoa(int(order.Quantity)),
	})
	return order, nil
}

func (s *admissionService) SubmitReceipt(ctx context.Context, actor Actor, orderID, receiptURL string) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, status.Error(codes.PermissionDenied, "order belongs to another user")
	}
	if !order.CanTransitionTo(domain.OrderStatusAwaitingReview) {
		return nil, status.Errorf(codes.FailedPrecondition, "order is %s, receipt not expected", order.Status)
	}

	before := order.Status
	order.Status = domain.OrderStatusAwaitingReview
	order.ReceiptURL = receiptURL
	order.UpdatedOn = s.now().UTC()
	if err := s.orderRepo.Update(ctx, order); err != nil {
		logger.ErrorContext(ctx, "failed to update order", "order_id", orderID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update order")
	}

	s.auditor.Record(ctx, actor.UserID, "order.receipt_submitted", "orders", order.ID, nil)
	s.publishOrderChange(ctx, order, before, actor.UserID)
	return order, nil
}

// MarkPaid records an external payment confirmation for a pending
// order and runs issuance synchronously; the bus redelivers the
// transition to the worker, where the idempotent issuance no-ops.
func (s *admissionService) MarkPaid(ctx context.Context, actor Actor, orderID string) (*OrderDecisionResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, order.ClubID); err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(domain.OrderStatusPaid) {
		// A paid or approved order may still be ticketless when an
		// earlier issuance attempt failed after the status write. The
		// retry re-enters the idempotent issuance instead of refusing.
		if order.Status == domain.OrderStatusPaid || order.Status == domain.OrderStatusApproved {
			return s.issue(ctx, orderID, actor.UserID)
		}
		return nil, status.Errorf(codes.FailedPrecondition, "order is %s, cannot mark paid", order.Status)
	}

	before := order.Status
	order.Status = domain.OrderStatusPaid
	order.UpdatedOn = s.now().UTC()
	if err := s.orderRepo.Update(ctx, order); err != nil {
		logger.ErrorContext(ctx, "failed to update order", "order_id", orderID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update order")
	}

	s.auditor.Record(ctx, actor.UserID, "order.paid", "orders", order.ID, nil)
	s.publishOrderChange(ctx, order, before, actor.UserID)
	return s.issue(ctx, orderID, actor.UserID)
}

func (s *admissionService) ReviewOrder(ctx context.Context, actor Actor, input ReviewOrderInput) (*OrderDecisionResult, error) {
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, order.ClubID); err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusAwaitingReview {
		// Re-approving an already approved order retries issuance; the
		// transaction no-ops when the tickets exist and recovers the
		// order when an earlier issuance attempt died mid-flight.
		if input.Approve && order.Status == domain.OrderStatusApproved {
			return s.issue(ctx, order.ID, actor.UserID)
		}
		return nil, status.Errorf(codes.FailedPrecondition, "order is %s, not awaiting review", order.Status)
	}

	before := order.Status
	next := domain.OrderStatusRejected
	if input.Approve {
		next = domain.OrderStatusApproved
	}
	now := s.now().UTC()
	order.Status = next
	order.ReviewedBy = &actor.UserID
	order.ReviewedOn = &now
	order.UpdatedOn = now
	if !input.Approve {
		order.RejectReason = input.Note
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		logger.ErrorContext(ctx, "failed to update order", "order_id", order.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update order")
	}

	s.auditor.Record(ctx, actor.UserID, "order.reviewed", "orders", order.ID, map[string]string{
		"decision": string(next),
		"note":     input.Note,
	})
	s.publishOrderChange(ctx, order, before, actor.UserID)

	if !input.Approve {
		s.notifyOrderDecision(ctx, order)
		return &OrderDecisionResult{Order: order}, nil
	}
	return s.issue(ctx, order.ID, actor.UserID)
}

func (s *admissionService) GetOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, order.ClubID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *admissionService) HandleOrderStatusChanged(ctx context.Context, event events.OrderStatusChanged) error {
	if !event.PaidEquivalent() {
		return nil
	}
	_, err := s.issue(ctx, event.OrderID, event.ActorID)
	return err
}

func (s *admissionService) CheckInTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "ticket not found")
		}
		return nil, status.Error(codes.Internal, "failed to load ticket")
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, ticket.ClubID); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load event")
	}
	now := s.now().UTC()
	if event.Status != domain.EventStatusActive {
		return nil, status.Error(codes.FailedPrecondition, "event is not active")
	}
	if event.Ended(now) {
		return nil, status.Error(codes.FailedPrecondition, "event has ended")
	}
	if ticket.Status != domain.TicketStatusValid {
		return nil, status.Error(codes.FailedPrecondition, "ticket already used")
	}

	// Conditional update: a concurrent check-in of the same ticket
	// loses here, not silently.
	if err := s.ticketRepo.CheckIn(ctx, ticketID, actor.UserID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.FailedPrecondition, "ticket already used")
		}
		logger.ErrorContext(ctx, "failed to check in ticket", "ticket_id", ticketID, "error", err)
		return nil, status.Error(codes.Internal, "failed to check in ticket")
	}

	ticket.Status = domain.TicketStatusUsed
	ticket.CheckedInOn = &now
	ticket.CheckedInBy = &actor.UserID

	s.auditor.Record(ctx, actor.UserID, "ticket.checked_in", "tickets", ticket.ID, map[string]string{"event_id": ticket.EventID})
	return ticket, nil
}

func (s *admissionService) TicketQR(ctx context.Context, actor Actor, ticketID string) (string, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", status.Error(codes.NotFound, "ticket not found")
		}
		return "", status.Error(codes.Internal, "failed to load ticket")
	}
	if ticket.UserID != actor.UserID {
		if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, ticket.ClubID); err != nil {
			return "", err
		}
	}

	png, err := qrcode.Encode(ticket.ID, qrcode.Medium, 256)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render ticket qr", "ticket_id", ticketID, "error", err)
		return "", status.Error(codes.Internal, "failed to render qr code")
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func (s *admissionService) ListTickets(ctx context.Context, actor Actor, orderID string) ([]domain.Ticket, error) {
	order, err := s.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list tickets")
	}
	return tickets, nil
}

// issue runs the transactional issuance step and shapes the outcome.
// A capacity failure is not an error: the order comes back rejected
// with reason capacity_reached and the caller reports that status.
func (s *admissionService) issue(ctx context.Context, orderID, actorID string) (*OrderDecisionResult, error) {
	res, err := s.ticketRepo.IssueForOrder(ctx, orderID, actorID)
	if err != nil {
		logger.ErrorContext(ctx, "ticket issuance failed", "order_id", orderID, "error", err)
		return nil, status.Error(codes.Internal, "ticket issuance failed")
	}

	ids := make([]string, 0, len(res.Tickets))
	for _, t := range res.Tickets {
		ids = append(ids, t.ID)
	}

	switch {
	case res.AlreadyIssued:
		logger.InfoContext(ctx, "issuance skipped, tickets already exist", "order_id", orderID)
	case res.CapacityFailed:
		logger.InfoContext(ctx, "order rejected at issuance, capacity exhausted", "order_id", orderID)
		s.notifyOrderDecision(ctx, res.Order)
	default:
		s.notifyTicketsIssued(ctx, res.Order, len(ids))
	}
	return &OrderDecisionResult{Order: res.Order, TicketIDs: ids}, nil
}

func (s *admissionService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "order not found")
		}
		return nil, status.Error(codes.Internal, "failed to load order")
	}
	return order, nil
}

// publishOrderChange pushes the transition onto the bus after the
// primary write committed. A publish failure is logged, never rolled
// back; synchronous issuance covers the common path.
func (s *admissionService) publishOrderChange(ctx context.Context, order *domain.Order, before domain.OrderStatus, actorID string) {
	err := s.publisher.PublishOrderStatusChanged(ctx, events.OrderStatusChanged{
		OrderID: order.ID,
		Before:  before,
		After:   order.Status,
		ActorID: actorID,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to publish order status change", "order_id", order.ID, "error", err)
	}
}

func (s *admissionService) notifyOrderDecision(ctx context.Context, order *domain.Order) {
	user, event, ok := s.loadNotifyTargets(ctx, order)
	if !ok {
		return
	}
	if err := s.email.SendOrderDecision(ctx, user.Email, event.Name, order.Status, order.RejectReason); err != nil {
		logger.ErrorContext(ctx, "failed to send order decision email", "order_id", order.ID, "error", err)
	}
}

func (s *admissionService) notifyTicketsIssued(ctx context.Context, order *domain.Order, count int) {
	user, event, ok := s.loadNotifyTargets(ctx, order)
	if !ok {
		return
	}
	if err := s.email.SendTicketsIssued(ctx, user.Email, event.Name, count); err != nil {
		logger.ErrorContext(ctx, "failed to send tickets issued email", "order_id", order.ID, "error", err)
	}
}

func (s *admissionService) loadNotifyTargets(ctx context.Context, order *domain.Order) (*domain.User, *domain.Event, bool) {
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load user for notification", "order_id", order.ID, "error", err)
		return nil, nil, false
	}
	event, err := s.eventRepo.GetByID(ctx, order.EventID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load event for notification", "order_id", order.ID, "error", err)
		return nil, nil, false
	}
	return user, event, true
}
