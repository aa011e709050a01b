package domain

import "time"

// AuditLogEntry is an append-only record of who did what to which
// document. There is no update or delete path.
type AuditLogEntry struct {
	ID               string            `json:"id"`
	ActorID          string            `json:"actor_id"`
	Action           string            `json:"action"`
	TargetCollection string            `json:"target_collection"`
	TargetID         string            `json:"target_id"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedOn        time.Time         `json:"created_on"`
}
