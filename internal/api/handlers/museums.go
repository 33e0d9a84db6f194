package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/museum"
)

// multipartMemory is how much of a multipart form is held in memory
// before parts spill to temporary files.
const multipartMemory = 32 << 20

type MuseumHandler struct {
	svc *museum.Service
}

func NewMuseumHandler(svc *museum.Service) *MuseumHandler {
	return &MuseumHandler{svc: svc}
}

func (h *MuseumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in museum.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MuseumHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Museum not found")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type floorplanBody struct {
	Notes     *string         `json:"notes"`
	Structure json.RawMessage `json:"structure"`
}

// SaveFloorplan accepts either a multipart form with image, notes and a
// structure JSON string, or a plain JSON body with notes and structure.
func (h *MuseumHandler) SaveFloorplan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Museum not found")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in museum.FloorplanInput
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(w, r, apperr.Validation("Invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		if notes := r.FormValue("notes"); notes != "" {
			in.Notes = &notes
		}
		if s := r.FormValue("structure"); s != "" {
			in.Structure = json.RawMessage(s)
		}
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			in.Image = &museum.Image{Filename: header.Filename, ContentType: header.Header.Get("Content-Type"), Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			writeError(w, r, apperr.Validation("Invalid image upload"))
			return
		}
	} else {
		var body floorplanBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		in.Notes = body.Notes
		in.Structure = body.Structure
	}

	res, err := h.svc.SaveFloorplan(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
