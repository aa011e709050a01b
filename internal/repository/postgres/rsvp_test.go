package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

func TestRSVPRepository_CreateConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("Success Under Capacity", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(100, 10))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps`).
			WithArgs("ev-1", domain.RSVPStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectExec(`INSERT INTO rsvps`).
			WithArgs("r-1", "ev-1", "user-1", domain.RSVPStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.CreateConfirmed(ctx, &domain.RSVP{ID: "r-1", EventID: "ev-1", UserID: "user-1"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Sold Tickets Count Against Flat Capacity", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		// 6 confirmed + 4 sold fills capacity 10; no insert happens.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(10, 4))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rsvps`).
			WithArgs("ev-1", domain.RSVPStatusConfirmed).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
		mock.ExpectRollback()

		err = repo.CreateConfirmed(ctx, &domain.RSVP{ID: "r-1", EventID: "ev-1", UserID: "user-1"})
		assert.ErrorIs(t, err, repository.ErrCapacityReached)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unlimited Event Skips The Count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(nil, 0))
		mock.ExpectExec(`INSERT INTO rsvps`).
			WithArgs("r-1", "ev-1", "user-1", domain.RSVPStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.CreateConfirmed(ctx, &domain.RSVP{ID: "r-1", EventID: "ev-1", UserID: "user-1"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation Maps To Duplicate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}).AddRow(nil, 0))
		mock.ExpectExec(`INSERT INTO rsvps`).
			WithArgs("r-1", "ev-1", "user-1", domain.RSVPStatusConfirmed, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err = repo.CreateConfirmed(ctx, &domain.RSVP{ID: "r-1", EventID: "ev-1", UserID: "user-1"})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT capacity, tickets_sold_count FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-x").
			WillReturnRows(sqlmock.NewRows([]string{"capacity", "tickets_sold_count"}))
		mock.ExpectRollback()

		err = repo.CreateConfirmed(ctx, &domain.RSVP{ID: "r-1", EventID: "ev-x", UserID: "user-1"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing To Cancel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := NewRSVPRepository(db)

		mock.ExpectExec(`UPDATE rsvps SET status = \$1`).
			WithArgs(domain.RSVPStatusCanceled, sqlmock.AnyArg(), "ev-1", "user-1", domain.RSVPStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Cancel(ctx, "ev-1", "user-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRSVPRepository_ListDuplicateConfirmed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()
	repo := NewRSVPRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "created_on", "updated_on"}).
		AddRow("r-2", "ev-1", "user-1", "CONFIRMED", time.Now(), time.Now())
	mock.ExpectQuery(`ROW_NUMBER\(\) OVER`).
		WithArgs(domain.RSVPStatusConfirmed).
		WillReturnRows(rows)

	dupes, err := repo.ListDuplicateConfirmed(ctx)
	assert.NoError(t, err)
	assert.Len(t, dupes, 1)
	assert.Equal(t, "r-2", dupes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
