package domain

import "time"

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	// University ids on the user's profile, matched against an event's
	// allowed-university set for CAMPUS visibility.
	UniversityIDs []string  `json:"university_ids,omitempty"`
	SuperAdmin    bool      `json:"super_admin"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}
