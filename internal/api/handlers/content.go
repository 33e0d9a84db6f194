package handlers

import (
	"net/http"

	"github.com/immuse/tourwizard/internal/content"
)

// ContentHandler serves the wizard's generated copy. Generation failures
// never surface here; the service answers with its fallback instead.
type ContentHandler struct {
	svc *content.Service
}

func NewContentHandler(svc *content.Service) *ContentHandler {
	return &ContentHandler{svc: svc}
}

func (h *ContentHandler) Chips(w http.ResponseWriter, r *http.Request) {
	var in content.ChipsInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.Chips(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ContentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in content.PreviewInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.Preview(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ContentHandler) StoryIntro(w http.ResponseWriter, r *http.Request) {
	var in content.StoryIntroInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.StoryIntro(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
