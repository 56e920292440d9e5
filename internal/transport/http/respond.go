package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-exam-service/internal/config"
	"campus-exam-service/internal/domain"
)

type errorBody struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	ResultID string `json:"result_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		duplicate  *domain.DuplicateAttemptError
		storage    *domain.StorageError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Error(), Field: validation.Field})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, errorBody{Error: duplicate.Error(), ResultID: duplicate.ResultID})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &storage):
		config.WithContext(r.Context()).WithError(err).Error("file storage failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "file storage unavailable"})
	default:
		config.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
