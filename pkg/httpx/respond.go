package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status code. Internal errors are logged and
// answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		log.InfoContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "err", err)
	}

	resp := ErrorResponse{Error: string(kind), Message: apperr.PublicMessage(err)}
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Fields = e.Fields
	}
	WriteJSON(w, status, resp)
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindNotFound, "not found")
	}
	return id, nil
}
