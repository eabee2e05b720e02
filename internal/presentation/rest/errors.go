package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/skills/internal/application/usecase"
	"github.com/bibbank/skills/internal/domain/port"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Table   string `json:"table,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps use case errors onto HTTP statuses and the error body.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr *skillerr.ValidationError
		derr *skillerr.DataNotFoundError
		rerr *skillerr.RangeError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: "validation", Message: err.Error(), Field: verr.Field}})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{Kind: "range", Message: err.Error(), Field: rerr.Field}})
	case errors.As(err, &derr):
		logger.ErrorContext(r.Context(), "reference data unavailable", "table", derr.Table, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Kind: "data_not_found", Message: err.Error(), Table: derr.Table}})
	case errors.Is(err, skill.ErrSkillNotFound), errors.Is(err, port.ErrEvaluationNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Kind: "not_found", Message: err.Error()}})
	case errors.Is(err, usecase.ErrStorageDisabled):
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: errorDetail{Kind: "not_implemented", Message: err.Error()}})
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Kind: "internal", Message: "internal error"}})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: "bad_request", Message: msg}})
}
