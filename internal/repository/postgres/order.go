package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, event_id, club_id, ticket_type_id, quantity, unit_price_cents, total_cents,
	status, reject_reason, receipt_url, reviewed_by, reviewed_on, created_on, updated_on`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.EventID, &o.ClubID, &o.TicketTypeID, &o.Quantity, &o.UnitPriceCents,
		&o.TotalCents, &o.Status, &o.RejectReason, &o.ReceiptURL, &o.ReviewedBy, &o.ReviewedOn, &o.CreatedOn, &o.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, user_id, event_id, club_id, ticket_type_id, quantity, unit_price_cents, total_cents,
	          status, reject_reason, receipt_url, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	now := time.Now()
	o.CreatedOn = now
	o.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, o.ID, o.UserID, o.EventID, o.ClubID, o.TicketTypeID, o.Quantity,
		o.UnitPriceCents, o.TotalCents, o.Status, o.RejectReason, o.ReceiptURL, o.CreatedOn, o.UpdatedOn)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return o, err
}

func (r *orderRepository) GetLive(ctx context.Context, eventID, userID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE event_id = $1 AND user_id = $2 AND status = ANY($3) ORDER BY created_on DESC LIMIT 1`
	statuses := make([]string, len(domain.LiveOrderStatuses))
	for i, s := range domain.LiveOrderStatuses {
		statuses[i] = string(s)
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, eventID, userID, pq.Array(statuses)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return o, err
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET status=$1, reject_reason=$2, receipt_url=$3, reviewed_by=$4, reviewed_on=$5, updated_on=$6 WHERE id=$7`
	o.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query, o.Status, o.RejectReason, o.ReceiptURL, o.ReviewedBy, o.ReviewedOn, o.UpdatedOn, o.ID)
	return err
}

func (r *orderRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 AND created_on < $2`
	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
