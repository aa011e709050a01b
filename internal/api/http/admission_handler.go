package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/service"
)

// AdmissionHandler exposes the eligibility check, the rsvp and order
// flows and ticket check-in.
type AdmissionHandler struct {
	guard     service.EligibilityService
	admission service.AdmissionService
}

func NewAdmissionHandler(guard service.EligibilityService, admission service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{guard: guard, admission: admission}
}

type evaluateEligibilityRequest struct {
	EventID      string `json:"event_id"`
	TicketTypeID string `json:"ticket_type_id"`
	ContextType  string `json:"context_type"`
}

// EvaluateEligibility always answers 200 with the decision shape;
// denial is data here, not an error.
func (h *AdmissionHandler) EvaluateEligibility(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req evaluateEligibilityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	evalCtx := domain.ContextRSVP
	if req.ContextType == string(domain.ContextOrder) {
		evalCtx = domain.ContextOrder
	}
	decision := h.guard.Evaluate(r.Context(), actor, req.EventID, req.TicketTypeID, evalCtx)
	writeJSON(w, http.StatusOK, decision)
}

func (h *AdmissionHandler) Rsvp(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rsvp, err := h.admission.Rsvp(r.Context(), actor, mux.Vars(r)["eventId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"rsvp_id": rsvp.ID})
}

func (h *AdmissionHandler) CancelRsvp(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admission.CancelRsvp(r.Context(), actor, mux.Vars(r)["eventId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type createOrderRequest struct {
	EventID      string `json:"event_id"`
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int32  `json:"quantity"`
}

type createOrderResponse struct {
	Order          *domain.Order `json:"order"`
	PaymentDetails string        `json:"payment_details"`
}

func (h *AdmissionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.admission.CreateOrder(r.Context(), actor, service.CreateOrderInput{
		EventID:      req.EventID,
		TicketTypeID: req.TicketTypeID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		Order:          order,
		PaymentDetails: "pay the club directly and submit your receipt to this order",
	})
}

func (h *AdmissionHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.admission.GetOrder(r.Context(), actor, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type submitReceiptRequest struct {
	ReceiptURL string `json:"receipt_url"`
}

func (h *AdmissionHandler) SubmitReceipt(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitReceiptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.admission.SubmitReceipt(r.Context(), actor, mux.Vars(r)["orderId"], req.ReceiptURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type orderDecisionResponse struct {
	Status    domain.OrderStatus `json:"status"`
	TicketIDs []string           `json:"ticket_ids"`
}

func (h *AdmissionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.admission.MarkPaid(r.Context(), actor, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDecisionResponse{
		Status:    result.Order.Status,
		TicketIDs: result.TicketIDs,
	})
}

type reviewOrderRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (h *AdmissionHandler) ReviewOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req reviewOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.admission.ReviewOrder(r.Context(), actor, service.ReviewOrderInput{
		OrderID: mux.Vars(r)["orderId"],
		Approve: req.Decision == "approved",
		Note:    req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDecisionResponse{
		Status:    result.Order.Status,
		TicketIDs: result.TicketIDs,
	})
}

func (h *AdmissionHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	tickets, err := h.admission.ListTickets(r.Context(), actor, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tickets": tickets})
}

type checkInResponse struct {
	AttendeeID   string  `json:"attendee_id"`
	TicketTypeID *string `json:"ticket_type_id,omitempty"`
}

func (h *AdmissionHandler) CheckInTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ticket, err := h.admission.CheckInTicket(r.Context(), actor, mux.Vars(r)["ticketId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkInResponse{
		AttendeeID:   ticket.UserID,
		TicketTypeID: ticket.TicketTypeID,
	})
}

func (h *AdmissionHandler) TicketQR(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	qr, err := h.admission.TicketQR(r.Context(), actor, mux.Vars(r)["ticketId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr_png_base64": qr})
}
