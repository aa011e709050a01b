package domain

import "time"

type ClubStatus string

const (
	ClubStatusPending  ClubStatus = "PENDING"
	ClubStatusActive   ClubStatus = "ACTIVE"
	ClubStatusArchived ClubStatus = "ARCHIVED"
)

type Club struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	UniversityID string     `json:"university_id"`
	OwnerID      string     `json:"owner_id"`
	Status       ClubStatus `json:"status"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    time.Time  `json:"updated_on"`
}

type ApprovalRequestType string

const (
	ApprovalRequestTypeClub ApprovalRequestType = "CLUB"
)

type ApprovalRequestStatus string

const (
	ApprovalRequestStatusPending  ApprovalRequestStatus = "PENDING"
	ApprovalRequestStatusApproved ApprovalRequestStatus = "APPROVED"
	ApprovalRequestStatusRejected ApprovalRequestStatus = "REJECTED"
)

// ApprovalRequest tracks a request to activate a newly created club.
// The approval reactor flips the target club to ACTIVE when the
// request transitions into APPROVED.
type ApprovalRequest struct {
	ID          string                `json:"id"`
	Type        ApprovalRequestType   `json:"type"`
	TargetID    string                `json:"target_id"`
	RequestedBy string                `json:"requested_by"`
	Status      ApprovalRequestStatus `json:"status"`
	ReviewedBy  *string               `json:"reviewed_by,omitempty"`
	Note        string                `json:"note"`
	CreatedOn   time.Time             `json:"created_on"`
	UpdatedOn   time.Time             `json:"updated_on"`
}
