package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/immuse/tourwizard/internal/apperr"
)

// maxJSONBody caps JSON request bodies. Uploads go through multipart.
const maxJSONBody = 1 << 20

type errorBody struct {
	Error   string              `json:"error"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// writeError maps err onto its status code. Internal failures are logged
// and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	body := errorBody{Error: "Internal server error"}
	var e *apperr.Error
	switch {
	case kind == apperr.KindInternal:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	case errors.As(err, &e):
		body.Error = e.Message
		body.Details = e.Details
		if kind == apperr.KindExternal {
			slog.WarnContext(r.Context(), "external service failed", "path", r.URL.Path, "error", err)
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid JSON body", apperr.FieldError{Field: "body", Message: err.Error()})
	}
	return nil
}

// pathID parses a uuid path parameter. Ids that cannot exist are reported
// with the same NotFound message as unknown ones.
func pathID(r *http.Request, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("%s", notFound)
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
