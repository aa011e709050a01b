package domain

import "time"

// AuthorizationClaims is the derived, cached authorization summary for
// a user. It is recomputed from approved memberships by the claims
// synchronizer and is eventually consistent with the membership
// records; security-relevant denials must fall back to a direct
// membership read.
type AuthorizationClaims struct {
	UserID        string          `json:"user_id"`
	SuperAdmin    bool            `json:"super_admin"`
	OfficerOfClub map[string]bool `json:"officer_of_club"`
	MemberOfClub  map[string]bool `json:"member_of_club"`
	UpdatedOn     time.Time       `json:"updated_on"`
}

// Equal compares the derived flags, ignoring UpdatedOn. The
// synchronizer uses it to avoid no-op writes.
func (c *AuthorizationClaims) Equal(other *AuthorizationClaims) bool {
	if other == nil {
		return false
	}
	if c.SuperAdmin != other.SuperAdmin || c.UserID != other.UserID {
		return false
	}
	if len(c.OfficerOfClub) != len(other.OfficerOfClub) || len(c.MemberOfClub) != len(other.MemberOfClub) {
		return false
	}
	for club, v := range c.OfficerOfClub {
		if other.OfficerOfClub[club] != v {
			return false
		}
	}
	for club, v := range c.MemberOfClub {
		if other.MemberOfClub[club] != v {
			return false
		}
	}
	return true
}

// IsOfficerOf reports the cached officer flag for a club. SuperAdmin
// implies officer everywhere.
func (c *AuthorizationClaims) IsOfficerOf(clubID string) bool {
	if c == nil {
		return false
	}
	return c.SuperAdmin || c.OfficerOfClub[clubID]
}

// IsMemberOf reports the cached member flag for a club.
func (c *AuthorizationClaims) IsMemberOf(clubID string) bool {
	if c == nil {
		return false
	}
	return c.MemberOfClub[clubID]
}
