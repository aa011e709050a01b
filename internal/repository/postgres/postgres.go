package postgres

import (
	"database/sql"

	"clubhub-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ClubRepository
	repository.ApprovalRequestRepository
	repository.MembershipRepository
	repository.EventRepository
	repository.RSVPRepository
	repository.OrderRepository
	repository.TicketRepository
	repository.AuditLogRepository
	repository.ClaimsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                        db,
		UserRepository:            NewUserRepository(db),
		ClubRepository:            NewClubRepository(db),
		ApprovalRequestRepository: NewApprovalRequestRepository(db),
		MembershipRepository:      NewMembershipRepository(db),
		EventRepository:           NewEventRepository(db),
		RSVPRepository:            NewRSVPRepository(db),
		OrderRepository:           NewOrderRepository(db),
		TicketRepository:          NewTicketRepository(db),
		AuditLogRepository:        NewAuditLogRepository(db),
		ClaimsRepository:          NewClaimsRepository(db),
	}
}
