package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shuttleclub/backend/internal/middleware"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/services"
)

const maxBodyBytes = 1_048_576

// decodeJSON reads exactly one JSON object into dst. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

// writeError maps service error kinds onto HTTP statuses. Storage failures are
// reported without detail.
func writeError(w http.ResponseWriter, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) || appErr.Kind == services.KindTransaction {
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindReference:
		status = http.StatusNotFound
	case services.KindState:
		status = http.StatusConflict
	case services.KindInsufficientFunds:
		status = http.StatusUnprocessableEntity
	}
	services.SendErrorResponse(w, appErr.Message, status, appErr.Fields)
}

func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok || actor.MemberID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return models.Actor{}, false
	}
	return actor, true
}

// pageQuery reads page and limit; missing or malformed values become zero and
// are defaulted by the services.
func pageQuery(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
