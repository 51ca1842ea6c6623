package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/services"
)

type TeamHandler struct {
	service *services.TeamService
}

func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.TeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) AddFees(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.TeamFeesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.service.AddFees(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) PayForShuttlecock(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req models.ShuttlecockFeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.service.PayForShuttlecock(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
