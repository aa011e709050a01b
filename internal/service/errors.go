package service

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
)

// DecisionError carries an eligibility denial through the error path
// of the admission flows. It implements GRPCStatus so status.FromError
// resolves the right code, and callers can errors.As it to recover the
// full decision for the response body.
type DecisionError struct {
	Decision domain.EligibilityDecision
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Decision.Code, e.Decision.Message)
}

func (e *DecisionError) GRPCStatus() *status.Status {
	return status.New(codeForEligibility(e.Decision.Code), e.Error())
}

func codeForEligibility(code domain.EligibilityCode) codes.Code {
	switch code {
	case domain.CodeEventUnavailable:
		return codes.NotFound
	case domain.CodeOutsideWindow, domain.CodeDuesRequired:
		return codes.FailedPrecondition
	case domain.CodeNotEligible, domain.CodeBanned:
		return codes.PermissionDenied
	case domain.CodeAlreadyJoined:
		return codes.AlreadyExists
	case domain.CodeInvalidTicketType:
		return codes.InvalidArgument
	case domain.CodeSoldOut, domain.CodeCapacityReached:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}
