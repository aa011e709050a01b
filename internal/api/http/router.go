// Package http is the JSON API surface. Handlers stay thin: decode,
// call the service, map the service's status error onto the response.
package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"clubhub-backend/internal/ratelimit"
	"clubhub-backend/internal/security"
	"clubhub-backend/internal/service"
	"clubhub-backend/internal/storage"
)

type RouterDeps struct {
	Tokens     security.TokenManager
	Limiter    *ratelimit.Limiter
	Receipts   storage.ReceiptStore
	Auth       service.AuthService
	Guard      service.EligibilityService
	Admission  service.AdmissionService
	Clubs      service.ClubService
	Membership service.MembershipService
	Approvals  service.ApprovalService
	Events     service.EventService
}

// NewRouter builds the full route table. Admission writes get the
// shared rate limiter on top of auth; reads and reviews do not.
func NewRouter(deps RouterDeps) *mux.Router {
	authHandler := NewAuthHandler(deps.Auth)
	clubHandler := NewClubHandler(deps.Clubs, deps.Membership, deps.Approvals)
	eventHandler := NewEventHandler(deps.Events)
	admissionHandler := NewAdmissionHandler(deps.Guard, deps.Admission)

	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public routes.
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/clubs", clubHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/clubs/{clubId}", clubHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventId}", eventHandler.Get).Methods(http.MethodGet)

	// Authenticated routes.
	authed := api.NewRoute().Subrouter()
	authed.Use(authMiddleware(deps.Tokens))

	authed.HandleFunc("/clubs", clubHandler.Create).Methods(http.MethodPost)
	authed.HandleFunc("/clubs/{clubId}/approval-requests", clubHandler.SubmitApproval).Methods(http.MethodPost)
	authed.HandleFunc("/approval-requests", clubHandler.ListPendingApprovals).Methods(http.MethodGet)
	authed.HandleFunc("/approval-requests/{requestId}/decision", clubHandler.DecideApproval).Methods(http.MethodPost)

	authed.HandleFunc("/clubs/{clubId}/memberships", clubHandler.RequestToJoin).Methods(http.MethodPost)
	authed.HandleFunc("/clubs/{clubId}/memberships", clubHandler.ListMemberships).Methods(http.MethodGet)
	authed.HandleFunc("/clubs/{clubId}/memberships/me", clubHandler.Leave).Methods(http.MethodDelete)
	authed.HandleFunc("/memberships/{membershipId}/review", clubHandler.ReviewMembership).Methods(http.MethodPost)
	authed.HandleFunc("/memberships/{membershipId}/ban", clubHandler.SetBanned).Methods(http.MethodPut)
	authed.HandleFunc("/memberships/{membershipId}/dues", clubHandler.SetDuesStatus).Methods(http.MethodPut)

	authed.HandleFunc("/events", eventHandler.Create).Methods(http.MethodPost)
	authed.HandleFunc("/events/{eventId}/cancel", eventHandler.Cancel).Methods(http.MethodPost)

	authed.HandleFunc("/eligibility", admissionHandler.EvaluateEligibility).Methods(http.MethodPost)
	authed.HandleFunc("/events/{eventId}/rsvp", admissionHandler.CancelRsvp).Methods(http.MethodDelete)
	authed.HandleFunc("/orders/{orderId}", admissionHandler.GetOrder).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{orderId}/receipt", admissionHandler.SubmitReceipt).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{orderId}/payment", admissionHandler.MarkPaid).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{orderId}/review", admissionHandler.ReviewOrder).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{orderId}/tickets", admissionHandler.ListTickets).Methods(http.MethodGet)
	authed.HandleFunc("/tickets/{ticketId}/check-in", admissionHandler.CheckInTicket).Methods(http.MethodPost)
	authed.HandleFunc("/tickets/{ticketId}/qr", admissionHandler.TicketQR).Methods(http.MethodGet)

	// Receipt uploads. The presigned-URL routes mimic an object store;
	// they skip auth the way a real presigned PUT would.
	if deps.Receipts != nil {
		receiptHandler := NewReceiptHandler(deps.Admission, deps.Receipts)
		authed.HandleFunc("/orders/{orderId}/receipt-upload-url", receiptHandler.CreateUploadURL).Methods(http.MethodPost)
		api.HandleFunc("/receipts/upload/{token}", receiptHandler.HandleUpload).Methods(http.MethodPut)
		api.HandleFunc("/receipts/{hash}", receiptHandler.HandleDownload).Methods(http.MethodGet)
	}

	// Admission writes carry the per-user rate limit.
	limited := api.NewRoute().Subrouter()
	limited.Use(authMiddleware(deps.Tokens))
	if deps.Limiter != nil {
		limited.Use(rateLimitMiddleware(deps.Limiter, "admission"))
	}
	limited.HandleFunc("/events/{eventId}/rsvp", admissionHandler.Rsvp).Methods(http.MethodPost)
	limited.HandleFunc("/orders", admissionHandler.CreateOrder).Methods(http.MethodPost)

	return router
}
