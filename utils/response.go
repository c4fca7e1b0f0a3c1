package utils

import (
	"encoding/json"
	"net/http"

	"babumoshai/apperr"

	"go.uber.org/zap"
)

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"message": msg})
}

// RespondWithAppError is the single place errors become HTTP responses. Internal
// failures are logged with their cause and answered with a generic message.
func RespondWithAppError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	RespondWithError(w, apperr.Status(kind), apperr.MessageOf(err))
}

type M map[string]any
