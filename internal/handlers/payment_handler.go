package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/services"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// CreateForMember records a payment on behalf of the member in the path.
func (h *PaymentHandler) CreateForMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := h.service.CreateForMember(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pageQuery(r)
	query := r.URL.Query()
	status := models.PaymentStatus(query.Get("status"))
	switch status {
	case "", models.PaymentStatusPending, models.PaymentStatusAccepted, models.PaymentStatusRejected:
	default:
		services.SendErrorResponse(w, "Invalid status filter", http.StatusBadRequest, map[string]string{"status": "must be pending, accepted or rejected"})
		return
	}

	result, err := h.service.List(r.Context(), actor, models.PaymentFilter{
		MemberID: query.Get("memberId"),
		Status:   status,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payment, err := h.service.Accept(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payment, err := h.service.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// QRCode serves the payment reference as a PNG image.
func (h *PaymentHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	png, err := h.service.QRCode(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
