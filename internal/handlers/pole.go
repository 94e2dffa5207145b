package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ilumina-bknd/internal/services"
)

type PoleHandler struct {
	service *services.PoleService
	logr    *zap.Logger
}

func NewPoleHandler(svc *services.PoleService, logr *zap.Logger) *PoleHandler {
	return &PoleHandler{service: svc, logr: logr}
}

// GET /poles
func (h *PoleHandler) QueryPoles(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.QueryPoles(r.Context(), r)
	if err != nil {
		h.logr.Error("failed to query poles", zap.Error(err))
		http.Error(w, "failed to query poles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /poles/{id}
func (h *PoleHandler) GetPoleByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pole, err := h.service.GetPoleByID(r.Context(), id)
	if err != nil {
		http.Error(w, "pole not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pole)
}

// GET /poles/external/{externalId}
func (h *PoleHandler) GetPoleByExternalID(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalId")
	pole, err := h.service.GetPoleByExternalID(r.Context(), externalID)
	if err != nil {
		http.Error(w, "pole not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pole)
}

// GET /poles/nearest?lat=&lng=
func (h *PoleHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		http.Error(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		http.Error(w, "invalid lng", http.StatusBadRequest)
		return
	}

	res, err := h.service.Nearest(r.Context(), lat, lng)
	if err != nil {
		h.logr.Error("nearest pole lookup failed", zap.Error(err))
		http.Error(w, "failed to resolve nearest pole", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
