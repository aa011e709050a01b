package domain

// EligibilityCode is the closed set of machine-readable denial reasons
// returned by the eligibility guard. The values are wire-stable; the
// frontend branches on them.
type EligibilityCode string

const (
	CodeEventUnavailable  EligibilityCode = "EVENT_UNAVAILABLE"
	CodeOutsideWindow     EligibilityCode = "OUTSIDE_WINDOW"
	CodeNotEligible       EligibilityCode = "NOT_ELIGIBLE"
	CodeAlreadyJoined     EligibilityCode = "ALREADY_JOINED"
	CodeInvalidTicketType EligibilityCode = "invalid_ticket_type"
	CodeSoldOut           EligibilityCode = "SOLD_OUT"
	CodeCapacityReached   EligibilityCode = "CAPACITY_REACHED"
	CodeDuesRequired      EligibilityCode = "DUES_REQUIRED"
	CodeBanned            EligibilityCode = "BANNED"
	CodeServerError       EligibilityCode = "server_error"
)

// EligibilityContext selects which admission path is being evaluated.
type EligibilityContext string

const (
	ContextRSVP  EligibilityContext = "rsvp"
	ContextOrder EligibilityContext = "order"
)

// EligibilityDecision is the guard's verdict. When Allowed is false,
// Code carries the first failing rule in evaluation order.
type EligibilityDecision struct {
	Allowed bool            `json:"allowed"`
	Code    EligibilityCode `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Deny builds a denial decision.
func Deny(code EligibilityCode, message string) EligibilityDecision {
	return EligibilityDecision{Allowed: false, Code: code, Message: message}
}

// Allow is the passing decision.
func Allow() EligibilityDecision {
	return EligibilityDecision{Allowed: true}
}
