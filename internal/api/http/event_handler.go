package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/service"
)

type EventHandler struct {
	events service.EventService
}

func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type createEventRequest struct {
	ClubID              string                    `json:"club_id"`
	Name                string                    `json:"name"`
	Description         string                    `json:"description"`
	Visibility          string                    `json:"visibility"`
	AllowedUniversities []string                  `json:"allowed_universities"`
	StartsOn            string                    `json:"starts_on"`
	EndsOn              string                    `json:"ends_on"`
	RSVPOpensOn         string                    `json:"rsvp_opens_on"`
	RSVPClosesOn        string                    `json:"rsvp_closes_on"`
	Capacity            *int32                    `json:"capacity"`
	PaymentMode         string                    `json:"payment_mode"`
	TicketTypes         []createTicketTypeRequest `json:"ticket_types"`
}

type createTicketTypeRequest struct {
	Name           string `json:"name"`
	UnitPriceCents int32  `json:"unit_price_cents"`
	Capacity       *int32 `json:"capacity"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input := service.CreateEventInput{
		ClubID:              req.ClubID,
		Name:                req.Name,
		Description:         req.Description,
		Visibility:          domain.EventVisibility(req.Visibility),
		AllowedUniversities: req.AllowedUniversities,
		StartsOn:            req.StartsOn,
		EndsOn:              req.EndsOn,
		RSVPOpensOn:         req.RSVPOpensOn,
		RSVPClosesOn:        req.RSVPClosesOn,
		Capacity:            req.Capacity,
		PaymentMode:         domain.PaymentMode(req.PaymentMode),
	}
	for _, tt := range req.TicketTypes {
		input.TicketTypes = append(input.TicketTypes, service.CreateTicketTypeInput{
			Name:           tt.Name,
			UnitPriceCents: tt.UnitPriceCents,
			Capacity:       tt.Capacity,
		})
	}

	event, err := h.events.Create(r.Context(), actor, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), mux.Vars(r)["eventId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.Cancel(r.Context(), actor, mux.Vars(r)["eventId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
