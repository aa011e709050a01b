package domain

import "time"

type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "PENDING"
	MembershipStatusApproved MembershipStatus = "APPROVED"
	MembershipStatusRejected MembershipStatus = "REJECTED"
	MembershipStatusArchived MembershipStatus = "ARCHIVED"
)

type MembershipRole string

const (
	MembershipRoleMember  MembershipRole = "MEMBER"
	MembershipRoleOfficer MembershipRole = "OFFICER"
	MembershipRoleOwner   MembershipRole = "OWNER"
)

type DuesStatus string

const (
	DuesStatusPaid     DuesStatus = "PAID"
	DuesStatusRequired DuesStatus = "REQUIRED"
	DuesStatusLate     DuesStatus = "LATE"
)

// Membership ties a user to a club. At most one record exists per
// (user, club) pair; re-requesting after a rejection or leave reuses
// the existing record instead of inserting a duplicate.
type Membership struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	ClubID     string           `json:"club_id"`
	Role       MembershipRole   `json:"role"`
	Status     MembershipStatus `json:"status"`
	DuesStatus DuesStatus       `json:"dues_status"`
	Banned     bool             `json:"banned"`
	ReviewedBy *string          `json:"reviewed_by,omitempty"`
	CreatedOn  time.Time        `json:"created_on"`
	UpdatedOn  time.Time        `json:"updated_on"`
}

// IsActiveMember reports whether this record grants club membership
// for eligibility purposes.
func (m *Membership) IsActiveMember() bool {
	return m.Status == MembershipStatusApproved && !m.Banned
}

// IsOfficer reports whether this record grants officer-level access.
func (m *Membership) IsOfficer() bool {
	return m.Status == MembershipStatusApproved &&
		(m.Role == MembershipRoleOfficer || m.Role == MembershipRoleOwner)
}
