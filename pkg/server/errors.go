package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ferrall/leasehold/pkg/types"
)

// converts domain errors to HTTP status codes
func statusFor(err error) int {
	var sv *types.SovereigntyViolationError
	var exp *types.LeaseExpiredError
	var iv *types.InvariantViolationError

	switch {
	case errors.Is(err, types.ErrUnknownResource):
		return http.StatusNotFound

	case errors.Is(err, types.ErrAlreadyLeased),
		errors.Is(err, types.ErrNotYetExpired),
		errors.As(err, &sv),
		errors.As(err, &exp):
		return http.StatusConflict

	case errors.Is(err, types.ErrInvalidLeaseDuration):
		return http.StatusBadRequest

	case errors.As(err, &iv):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
