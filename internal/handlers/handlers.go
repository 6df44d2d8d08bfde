package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// writeError maps typed domain errors onto HTTP status codes. Anything
// unrecognized is a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation   *apperrors.ErrValidation
		insufficient *apperrors.ErrInsufficientHoldings
		notFound     *apperrors.ErrNotFound
		unavailable  *apperrors.ErrDataUnavailable
		rateLimited  *apperrors.ErrRateLimited
	)
	switch {
	case errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &insufficient):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &unavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.As(err, &rateLimited):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDate parses a YYYY-MM-DD query value; ok is false when absent or
// malformed.
func parseDate(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseAccounts splits the comma-separated accounts filter.
func parseAccounts(r *http.Request) []string {
	raw := r.URL.Query().Get("accounts")
	if raw == "" {
		return nil
	}
	var accounts []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accounts = append(accounts, a)
		}
	}
	return accounts
}
