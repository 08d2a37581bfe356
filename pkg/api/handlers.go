package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethpandaops/regressoor/pkg/api/store"
	"github.com/ethpandaops/regressoor/pkg/compare"
	"github.com/ethpandaops/regressoor/pkg/pagination"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// writeError maps an error from the compare/store layers onto the HTTP
// error taxonomy. Malformed compare tokens and unknown IDs are
// not-found; unit mismatches and bad page sizes are bad requests;
// anything else is a fault that gets logged and propagated unmodified.
func (s *server) writeError(w http.ResponseWriter, err error) {
	var (
		malformedErr *compare.MalformedIDError
		unitErr      *compare.UnitMismatchError
		pageSizeErr  *pagination.InvalidPageSizeError
	)

	switch {
	case errors.As(err, &malformedErr):
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
	case errors.As(err, &unitErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	case errors.As(err, &pageSizeErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	default:
		s.log.WithError(err).Error("Request failed")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})
	}
}

// writeRetryLater tells the client the compare gate is saturated. This
// is backpressure, not a failure: the client should retry shortly.
func writeRetryLater(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests,
		errorResponse{"doing other compare work, retry soon"})
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// floatQueryParam parses an optional float query parameter, returning
// nil when the parameter is absent.
func floatQueryParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// intQueryParam parses an optional integer query parameter, returning
// nil when the parameter is absent.
func intQueryParam(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// int64QueryParam parses an optional int64 query parameter, returning 0
// when the parameter is absent.
func int64QueryParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	return strconv.ParseInt(raw, 10, 64)
}
