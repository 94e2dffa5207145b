package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ilumina-bknd/internal/services"
)

type OccurrenceHandler struct {
	service *services.OccurrenceService
	logr    *zap.Logger
}

func NewOccurrenceHandler(svc *services.OccurrenceService, logr *zap.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{service: svc, logr: logr}
}

// POST /occurrences  (public, anonymous reports allowed)
func (h *OccurrenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateOccurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.PoleID == "" || req.Category == "" || req.Phone == "" {
		http.Error(w, "pole_id, category and phone are required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logr.Error("failed to create occurrence", zap.Error(err))
		http.Error(w, "failed to create occurrence", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GET /occurrences/protocol/{protocol}  (public tracking)
func (h *OccurrenceHandler) TrackByProtocol(w http.ResponseWriter, r *http.Request) {
	protocol := chi.URLParam(r, "protocol")
	occ, err := h.service.TrackByProtocol(r.Context(), protocol)
	if err != nil {
		http.Error(w, "protocol not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// GET /occurrences  (staff)
func (h *OccurrenceHandler) Query(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Query(r.Context(), r)
	if err != nil {
		h.logr.Error("failed to query occurrences", zap.Error(err))
		http.Error(w, "failed to query occurrences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// PATCH /occurrences/{id}/status  (staff)
func (h *OccurrenceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	occ, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logr.Warn("failed to update occurrence status", zap.Error(err), zap.String("id", id))
		http.Error(w, "failed to update status", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}
