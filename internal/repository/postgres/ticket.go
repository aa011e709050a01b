package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type ticketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, order_id, event_id, club_id, user_id, ticket_type_id, status, checked_in_on, checked_in_by, created_on`

func scanTicket(row interface{ Scan(...interface{}) error }) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	err := row.Scan(&t.ID, &t.OrderID, &t.EventID, &t.ClubID, &t.UserID, &t.TicketTypeID, &t.Status,
		&t.CheckedInOn, &t.CheckedInBy, &t.CreatedOn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return t, err
}

func (r *ticketRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE order_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// IssueForOrder is the only authoritative capacity-enforcement point
// for paid admission. The idempotency lookup, the capacity re-check,
// the ticket inserts, the sold-counter bumps and the audit row all
// happen inside one transaction so concurrent confirmations for the
// same scope serialize on the locked rows.
//
// Lock order is fixed (order row, then event row, then ticket-type
// row) so concurrent issuances cannot deadlock.
func (r *ticketRepository) IssueForOrder(ctx context.Context, orderID, actorID string) (*repository.IssuanceResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Redelivered trigger: tickets already exist, nothing to do.
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1 ORDER BY created_on`, orderID)
	if err != nil {
		return nil, err
	}
	existing, err := collectTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &repository.IssuanceResult{Order: order, Tickets: existing, AlreadyIssued: true}, nil
	}

	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusApproved {
		return nil, fmt.Errorf("order %s is not in an issuable state: %s", order.ID, order.Status)
	}

	var eventCapacity sql.NullInt32
	var eventSold int32
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, tickets_sold_count FROM events WHERE id = $1 FOR UPDATE`, order.EventID).
		Scan(&eventCapacity, &eventSold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Capacity is scoped to the most specific level: the ticket type
	// when the order names one, otherwise the event counter plus
	// confirmed rsvps. The event counter is bumped for typed orders
	// too, so an event-level cap still bounds them.
	exhausted := false
	if order.TicketTypeID != nil {
		var typeCapacity sql.NullInt32
		var typeSold int32
		err = tx.QueryRowContext(ctx,
			`SELECT capacity, sold FROM ticket_types WHERE id = $1 FOR UPDATE`, *order.TicketTypeID).
			Scan(&typeCapacity, &typeSold)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if typeCapacity.Valid && typeSold+order.Quantity > typeCapacity.Int32 {
			exhausted = true
		}
		if eventCapacity.Valid && eventSold+order.Quantity > eventCapacity.Int32 {
			exhausted = true
		}
	} else if eventCapacity.Valid {
		var confirmed int32
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2`, order.EventID, domain.RSVPStatusConfirmed).
			Scan(&confirmed)
		if err != nil {
			return nil, err
		}
		if eventSold+confirmed+order.Quantity > eventCapacity.Int32 {
			exhausted = true
		}
	}

	now := time.Now()

	if exhausted {
		order.Status = domain.OrderStatusRejected
		order.RejectReason = domain.RejectReasonCapacity
		order.UpdatedOn = now
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status=$1, reject_reason=$2, updated_on=$3 WHERE id=$4`,
			order.Status, order.RejectReason, order.UpdatedOn, order.ID)
		if err != nil {
			return nil, err
		}
		if err := appendAuditTx(ctx, tx, actorID, "order.rejected", "orders", order.ID, map[string]string{
			"reason": domain.RejectReasonCapacity,
		}); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &repository.IssuanceResult{Order: order, CapacityFailed: true}, nil
	}

	tickets := make([]domain.Ticket, 0, order.Quantity)
	for i := int32(0); i < order.Quantity; i++ {
		t := domain.Ticket{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			EventID:      order.EventID,
			ClubID:       order.ClubID,
			UserID:       order.UserID,
			TicketTypeID: order.TicketTypeID,
			Status:       domain.TicketStatusValid,
			CreatedOn:    now,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tickets (id, order_id, event_id, club_id, user_id, ticket_type_id, status, created_on)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.OrderID, t.EventID, t.ClubID, t.UserID, t.TicketTypeID, t.Status, t.CreatedOn)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	if order.TicketTypeID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE ticket_types SET sold = sold + $1 WHERE id = $2`, order.Quantity, *order.TicketTypeID)
		if err != nil {
			return nil, err
		}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE events SET tickets_sold_count = tickets_sold_count + $1, updated_on = $2 WHERE id = $3`,
		order.Quantity, now, order.EventID)
	if err != nil {
		return nil, err
	}

	if err := appendAuditTx(ctx, tx, actorID, "tickets.issued", "orders", order.ID, map[string]string{
		"quantity": fmt.Sprintf("%d", order.Quantity),
		"event_id": order.EventID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &repository.IssuanceResult{Order: order, Tickets: tickets}, nil
}

func (r *ticketRepository) CheckIn(ctx context.Context, ticketID, checkerID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status=$1, checked_in_on=$2, checked_in_by=$3 WHERE id=$4 AND status=$5`,
		domain.TicketStatusUsed, at, checkerID, ticketID, domain.TicketStatusValid)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) CountByEvent(ctx context.Context, eventID string) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE event_id = $1`, eventID).Scan(&count)
	return count, err
}

func collectTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// appendAuditTx writes an audit row as part of an open transaction so
// the record commits or aborts together with the writes it describes.
func appendAuditTx(ctx context.Context, tx *sql.Tx, actorID, action, collection, targetID string, metadata map[string]string) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target_collection, target_id, metadata, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), actorID, action, collection, targetID, meta, time.Now())
	return err
}
