package handlers

import (
	"net/http"

	"github.com/immuse/tourwizard/internal/tour"
)

type TourHandler struct {
	svc *tour.Service
}

func NewTourHandler(svc *tour.Service) *TourHandler {
	return &TourHandler{svc: svc}
}

func (h *TourHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in tour.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Tour not found")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *TourHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in tour.PreviewInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Preview(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
