package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/service"
)

type ClubHandler struct {
	clubs       service.ClubService
	memberships service.MembershipService
	approvals   service.ApprovalService
}

func NewClubHandler(clubs service.ClubService, memberships service.MembershipService, approvals service.ApprovalService) *ClubHandler {
	return &ClubHandler{clubs: clubs, memberships: memberships, approvals: approvals}
}

type createClubRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	UniversityID string `json:"university_id"`
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req createClubRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	club, err := h.clubs.Create(r.Context(), actor, service.CreateClubInput{
		Name:         req.Name,
		Description:  req.Description,
		UniversityID: req.UniversityID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, club)
}

func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	club, err := h.clubs.Get(r.Context(), mux.Vars(r)["clubId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	clubStatus := domain.ClubStatus(r.URL.Query().Get("status"))
	if clubStatus == "" {
		clubStatus = domain.ClubStatusActive
	}
	clubs, err := h.clubs.List(r.Context(), clubStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clubs": clubs})
}

type submitApprovalRequest struct {
	Note string `json:"note"`
}

func (h *ClubHandler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	approval, err := h.approvals.Submit(r.Context(), actor, mux.Vars(r)["clubId"], req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, approval)
}

func (h *ClubHandler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	approvals, err := h.approvals.ListPending(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"approval_requests": approvals})
}

type decideApprovalRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (h *ClubHandler) DecideApproval(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req decideApprovalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	approval, err := h.approvals.Decide(r.Context(), actor, mux.Vars(r)["requestId"], req.Decision == "approved", req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approval)
}

func (h *ClubHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := h.memberships.RequestToJoin(r.Context(), actor, mux.Vars(r)["clubId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *ClubHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.memberships.Leave(r.Context(), actor, mux.Vars(r)["clubId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *ClubHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	memberStatus := domain.MembershipStatus(r.URL.Query().Get("status"))
	if memberStatus == "" {
		memberStatus = domain.MembershipStatusPending
	}
	memberships, err := h.memberships.ListByClub(r.Context(), actor, mux.Vars(r)["clubId"], memberStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"memberships": memberships})
}

type reviewMembershipRequest struct {
	Decision string `json:"decision"`
}

func (h *ClubHandler) ReviewMembership(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req reviewMembershipRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.memberships.Review(r.Context(), actor, mux.Vars(r)["membershipId"], req.Decision == "approved")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type banRequest struct {
	Banned bool `json:"banned"`
}

func (h *ClubHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req banRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.memberships.SetBanned(r.Context(), actor, mux.Vars(r)["membershipId"], req.Banned)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type duesRequest struct {
	DuesStatus string `json:"dues_status"`
}

func (h *ClubHandler) SetDuesStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req duesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.memberships.SetDuesStatus(r.Context(), actor, mux.Vars(r)["membershipId"], domain.DuesStatus(req.DuesStatus))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
