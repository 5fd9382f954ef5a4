package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/readers-hub/services"
	"github.com/upb/readers-hub/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred", nil, logger)
		return
	}

	details := domainErr.Details
	if len(details) == 0 {
		details = nil
	}

	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeError(w, http.StatusNotFound, domainErr.Message, details, logger)
	case services.ErrorTypeValidation, services.ErrorTypeInvalidOperation:
		writeError(w, http.StatusBadRequest, domainErr.Message, details, logger)
	case services.ErrorTypeUnauthorized:
		writeError(w, http.StatusUnauthorized, domainErr.Message, nil, logger)
	case services.ErrorTypeForbidden:
		writeError(w, http.StatusForbidden, domainErr.Message, nil, logger)
	case services.ErrorTypeConflict:
		writeError(w, http.StatusConflict, domainErr.Message, details, logger)
	case services.ErrorTypeStorage:
		// Storage failures are never reported as a policy outcome.
		logger.Error("storage failure", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "The service is temporarily unavailable", nil, logger)
	default:
		logger.Error("internal server error",
			zap.Error(err),
			zap.String("error_type", string(domainErr.Type)))
		writeError(w, http.StatusInternalServerError, "An internal error occurred", nil, logger)
	}
}

// HandleValidationError handles errors from request decoding and validation
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if fields := utils.GetValidationFields(err); fields != nil {
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		writeError(w, http.StatusBadRequest, "Validation failed", details, logger)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), nil, logger)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}, logger *zap.Logger) {
	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
