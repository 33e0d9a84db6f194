package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/archive"
)

// multipartOverhead covers part headers and boundaries around the file.
const multipartOverhead = 1 << 20

type ArchiveHandler struct {
	svc *archive.Service
}

func NewArchiveHandler(svc *archive.Service) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

type addURLBody struct {
	URL string `json:"url"`
}

// Add registers one archive file: a multipart "file" part is stored
// immediately, a JSON {url} body is recorded for fetching at ingestion.
func (h *ArchiveHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Museum not found")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.RequireMuseum(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	var receipt *archive.Receipt
	if isMultipart(r) {
		receipt, err = h.upload(w, r, id)
	} else {
		var body addURLBody
		if err = decodeJSON(r, &body); err == nil {
			receipt, err = h.svc.AddURL(r.Context(), id, body.URL)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *ArchiveHandler) upload(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*archive.Receipt, error) {
	if limit := h.svc.MaxUpload(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, h.svc.TooLarge()
		}
		return nil, apperr.Validation("Invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	var up archive.Upload
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		up = archive.Upload{Filename: header.Filename, ContentType: header.Header.Get("Content-Type"), Body: file}
	case !errors.Is(err, http.ErrMissingFile):
		return nil, apperr.Validation("Invalid file upload")
	}
	return h.svc.AddUpload(r.Context(), id, up)
}
