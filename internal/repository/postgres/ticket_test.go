package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

var orderRowColumns = []string{
	"id", "user_id", "event_id", "club_id", "ticket_type_id", "quantity", "unit_price_cents", "total_cents",
	"status", "reject_reason", "receipt_url", "reviewed_by", "reviewed_on", "created_on", "updated_on",
}

var ticketRowColumns = []string{
	"id", "order_id", "event_id", "club_id", "user_id", "ticket_type_id", "status", "checked_in_on", "checked_in_by", "created_on",
}

func paidOrderRow(orderID string, quantity int32, ticketTypeID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderRowColumns).
		AddRow(orderID, "user-1", "ev-1", "club-1", ticketTypeID, quantity, int32(500), quantity*500,
			"PAID", "", "", nil, nil, now, now)
}

func TestTicketRepository_IssueForOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Issues Tickets For Paid Order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(paidOrderRow("o-1", 2, nil))
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(100, 10))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps`).
			WithArgs("ev-1", domain.RSVPStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectExec(`INSERT INTO tickets`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO tickets`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE events SET tickets_sold_count = tickets_sold_count \+ \$1`).
			WithArgs(int32(2), sqlmock.AnyArg(), "ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.NoError(t, err)
		assert.False(t, res.AlreadyIssued)
		assert.False(t, res.CapacityFailed)
		assert.Len(t, res.Tickets, 2)
		assert.Equal(t, domain.TicketStatusValid, res.Tickets[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Existing Tickets Make It A No-Op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(paidOrderRow("o-1", 1, nil))
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns).
				AddRow("t-1", "o-1", "ev-1", "club-1", "user-1", nil, "VALID", nil, nil, now))
		mock.ExpectCommit()

		res, err := repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.NoError(t, err)
		assert.True(t, res.AlreadyIssued)
		assert.Len(t, res.Tickets, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Capacity Exhausted Rejects The Order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(paidOrderRow("o-1", 1, nil))
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))
		// 1 sold + 1 confirmed rsvp + quantity 1 > capacity 2
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(2, 1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps`).
			WithArgs("ev-1", domain.RSVPStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`UPDATE orders SET status=\$1, reject_reason=\$2`).
			WithArgs(domain.OrderStatusRejected, domain.RejectReasonCapacity, sqlmock.AnyArg(), "o-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.NoError(t, err)
		assert.True(t, res.CapacityFailed)
		assert.Empty(t, res.Tickets)
		assert.Equal(t, domain.OrderStatusRejected, res.Order.Status)
		assert.Equal(t, domain.RejectReasonCapacity, res.Order.RejectReason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Typed Order Checks The Type Counter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(paidOrderRow("o-1", 1, "tt-1"))
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(nil, 0))
		mock.ExpectQuery(`SELECT capacity, sold FROM ticket_types WHERE id = \$1 FOR UPDATE`).
			WithArgs("tt-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "sold"}).AddRow(50, 49))
		mock.ExpectExec(`INSERT INTO tickets`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE ticket_types SET sold = sold \+ \$1`).
			WithArgs(int32(1), "tt-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE events SET tickets_sold_count = tickets_sold_count \+ \$1`).
			WithArgs(int32(1), sqlmock.AnyArg(), "ev-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.NoError(t, err)
		assert.Len(t, res.Tickets, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Typed Order Bounded By Event Capacity", func(t *testing.T) {
		// The type still has room, but the event-level cap is already
		// consumed; the order must reject gracefully rather than trip
		// the sold-count constraint on commit.
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(paidOrderRow("o-1", 1, "tt-1"))
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(10, 10))
		mock.ExpectQuery(`SELECT capacity, sold FROM ticket_types WHERE id = \$1 FOR UPDATE`).
			WithArgs("tt-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "sold"}).AddRow(50, 0))
		mock.ExpectExec(`UPDATE orders SET status=\$1, reject_reason=\$2`).
			WithArgs(domain.OrderStatusRejected, domain.RejectReasonCapacity, sqlmock.AnyArg(), "o-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.NoError(t, err)
		assert.True(t, res.CapacityFailed)
		assert.Empty(t, res.Tickets)
		assert.Equal(t, domain.OrderStatusRejected, res.Order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unpaid Order Refused", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		now := time.Now()
		pending := sqlmock.NewRows(orderRowColumns).
			AddRow("o-1", "user-1", "ev-1", "club-1", nil, int32(1), int32(500), int32(500),
				"PENDING", "", "", nil, nil, now, now)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o-1").
			WillReturnRows(pending)
		mock.ExpectQuery(`FROM tickets WHERE order_id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))
		mock.ExpectRollback()

		_, err = repo.IssueForOrder(ctx, "o-1", "officer-1")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTicketRepository_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		at := time.Now()
		mock.ExpectExec(`UPDATE tickets SET status=\$1`).
			WithArgs(domain.TicketStatusUsed, at, "officer-1", "t-1", domain.TicketStatusValid).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.CheckIn(ctx, "t-1", "officer-1", at)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Used", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewTicketRepository(db)

		at := time.Now()
		mock.ExpectExec(`UPDATE tickets SET status=\$1`).
			WithArgs(domain.TicketStatusUsed, at, "officer-1", "t-1", domain.TicketStatusValid).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.CheckIn(ctx, "t-1", "officer-1", at)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
