package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/wizard"
	"github.com/petrijr/stepform/pkg/api"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps wizard and store errors to HTTP statuses.
func statusFor(err error) (int, string) {
	if _, ok := api.IsConfigurationError(err); ok {
		return http.StatusServiceUnavailable, "form not usable"
	}
	switch {
	case errors.Is(err, persistence.ErrStepConflict):
		return http.StatusConflict, "step conflict"
	case errors.Is(err, persistence.ErrSubmissionNotFound), errors.Is(err, persistence.ErrParentNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, wizard.ErrInvalidFieldKey):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request_failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, msg)
}
