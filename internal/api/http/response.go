package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a service error onto the HTTP response. Eligibility
// denials keep their machine-readable code; everything else uses the
// status code name so the frontend can branch without string matching.
func writeError(w http.ResponseWriter, err error) {
	var decisionErr *service.DecisionError
	if errors.As(err, &decisionErr) {
		st := decisionErr.GRPCStatus()
		writeJSON(w, httpStatus(st.Code()), errorBody{Error: errorDetail{
			Code:    string(decisionErr.Decision.Code),
			Message: decisionErr.Decision.Message,
		}})
		return
	}

	st := status.Convert(err)
	if st.Code() == codes.Internal || st.Code() == codes.Unknown {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, httpStatus(st.Code()), errorBody{Error: errorDetail{
		Code:    st.Code().String(),
		Message: st.Message(),
	}})
}

// httpStatus follows the canonical gRPC-to-HTTP mapping.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return status.Error(codes.InvalidArgument, "invalid json body")
	}
	return nil
}
