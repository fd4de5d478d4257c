package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ravlen/upkeep/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors onto HTTP responses: field errors become
// 400 with a per-field body, sentinel errors become 404/409, anything else
// is logged and hidden behind a 500.
func writeError(w http.ResponseWriter, err error) {
	var fe apperr.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: fe.Error(), Fields: fe})
		return
	}
	var ve validation.Errors
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: ve.Error(), Fields: ve})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
