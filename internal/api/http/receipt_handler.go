package http

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/service"
	"clubhub-backend/internal/storage"
)

// ReceiptHandler hands out presigned upload URLs for payment receipts
// and, for the local store, serves the upload/download routes those
// URLs point at.
type ReceiptHandler struct {
	admission service.AdmissionService
	store     storage.ReceiptStore
}

func NewReceiptHandler(admission service.AdmissionService, store storage.ReceiptStore) *ReceiptHandler {
	return &ReceiptHandler{admission: admission, store: store}
}

var receiptContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type receiptUploadURLRequest struct {
	ContentType string `json:"content_type"`
}

type receiptUploadURLResponse struct {
	UploadURL  string `json:"upload_url"`
	ReceiptURL string `json:"receipt_url"`
	Key        string `json:"key"`
}

// CreateUploadURL is called by the buyer before submitting a receipt.
// The returned receipt_url is what goes into the submit-receipt call
// once the upload completes.
func (h *ReceiptHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req receiptUploadURLRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ext, ok := receiptContentTypes[req.ContentType]
	if !ok {
		writeError(w, status.Error(codes.InvalidArgument, "content_type must be image/jpeg, image/png or application/pdf"))
		return
	}

	// Only the order's owner gets an upload slot, and only while a
	// receipt still makes sense for the order's state.
	order, err := h.admission.GetOrder(r.Context(), actor, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if order.UserID != actor.UserID {
		writeError(w, status.Error(codes.PermissionDenied, "order belongs to another user"))
		return
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusAwaitingReview {
		writeError(w, status.Errorf(codes.FailedPrecondition, "order is %s, receipt not expected", order.Status))
		return
	}

	key := fmt.Sprintf("%s/%s%s", order.ID, uuid.NewString(), ext)
	uploadURL, err := h.store.GenerateUploadURL(r.Context(), key, req.ContentType, 15*time.Minute)
	if err != nil {
		writeError(w, status.Error(codes.Internal, "failed to generate upload url"))
		return
	}
	receiptURL, err := h.store.GenerateDownloadURL(r.Context(), key, 0)
	if err != nil {
		writeError(w, status.Error(codes.Internal, "failed to generate receipt url"))
		return
	}

	writeJSON(w, http.StatusOK, receiptUploadURLResponse{
		UploadURL:  uploadURL,
		ReceiptURL: receiptURL,
		Key:        key,
	})
}

// HandleUpload receives the PUT against a local-store presigned URL.
func (h *ReceiptHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}
	if _, ok := receiptContentTypes[r.Header.Get("Content-Type")]; !ok {
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}
	if err := h.store.Save(key, r.Body); err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", `"receipt-upload-success"`)
	w.WriteHeader(http.StatusOK)
}

// HandleDownload streams a stored receipt back to a reviewer.
func (h *ReceiptHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}
	file, err := h.store.Open(key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch path.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".pdf":
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	io.Copy(w, file)
}
