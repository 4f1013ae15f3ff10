package v1

import (
	"context"
	"errors"
	"net/http"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"
	"shiprate-backend/pkg/utils"
)

const (
	codeInvalidInput   = "invalid_input"
	codeZoneNotFound   = "zone_not_found"
	codePolicyNotFound = "policy_not_found"
	codeRateNotFound   = "rate_not_found"
	codeUnavailable    = "unavailable"
	codeNotConfigured  = "not_configured"
	codeInternal       = "internal"
)

// classify maps a usecase error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, domain.ErrZoneNotFound):
		return http.StatusUnprocessableEntity, codeZoneNotFound
	case errors.Is(err, domain.ErrPolicyNotFound):
		return http.StatusUnprocessableEntity, codePolicyNotFound
	case errors.Is(err, domain.ErrRateNotFound):
		return http.StatusUnprocessableEntity, codeRateNotFound
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusNotImplemented, codeNotConfigured
	case errors.Is(err, domain.ErrDataStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// errorBody builds the client-facing error. Internal and store failures get a
// generic message; the detail goes to the log only.
func errorBody(r *http.Request, err error) (int, *domain.ErrorBody) {
	status, code := classify(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("store unavailable")
		msg = "service temporarily unavailable"
	case http.StatusInternalServerError:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		msg = "internal server error"
	}
	return status, &domain.ErrorBody{Code: code, Message: msg}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(r, err)
	utils.WriteError(w, status, body.Code, body.Message)
}
