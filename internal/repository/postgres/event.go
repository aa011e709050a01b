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

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	now := time.Now()
	e.CreatedOn = now
	e.UpdatedOn = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO events (id, club_id, name, description, visibility, allowed_universities, status,
	          starts_on, ends_on, rsvp_opens_on, rsvp_closes_on, capacity, tickets_sold_count, payment_mode, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = tx.ExecContext(ctx, query, e.ID, e.ClubID, e.Name, e.Description, e.Visibility, pq.Array(e.AllowedUniversities),
		e.Status, e.StartsOn, e.EndsOn, e.RSVPOpensOn, e.RSVPClosesOn, e.Capacity, e.TicketsSoldCount, e.PaymentMode, e.CreatedOn, e.UpdatedOn)
	if err != nil {
		return err
	}

	for i := range e.TicketTypes {
		tt := &e.TicketTypes[i]
		tt.EventID = e.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_types (id, event_id, name, unit_price_cents, capacity, sold) VALUES ($1, $2, $3, $4, $5, $6)`,
			tt.ID, tt.EventID, tt.Name, tt.UnitPriceCents, tt.Capacity, tt.Sold)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e := &domain.Event{}
	query := `SELECT id, club_id, name, description, visibility, allowed_universities, status,
	          starts_on, ends_on, rsvp_opens_on, rsvp_closes_on, capacity, tickets_sold_count, payment_mode, created_on, updated_on
	          FROM events WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.ClubID, &e.Name, &e.Description, &e.Visibility,
		pq.Array(&e.AllowedUniversities), &e.Status, &e.StartsOn, &e.EndsOn, &e.RSVPOpensOn, &e.RSVPClosesOn,
		&e.Capacity, &e.TicketsSoldCount, &e.PaymentMode, &e.CreatedOn, &e.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, name, unit_price_cents, capacity, sold FROM ticket_types WHERE event_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.UnitPriceCents, &tt.Capacity, &tt.Sold); err != nil {
			return nil, err
		}
		e.TicketTypes = append(e.TicketTypes, tt)
	}
	return e, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `UPDATE events SET name=$1, description=$2, visibility=$3, allowed_universities=$4, status=$5,
	          starts_on=$6, ends_on=$7, rsvp_opens_on=$8, rsvp_closes_on=$9, capacity=$10, updated_on=$11 WHERE id=$12`
	_, err := r.db.ExecContext(ctx, query, e.Name, e.Description, e.Visibility, pq.Array(e.AllowedUniversities),
		e.Status, e.StartsOn, e.EndsOn, e.RSVPOpensOn, e.RSVPClosesOn, e.Capacity, time.Now(), e.ID)
	return err
}
