package handlers

import (
	"errors"
	"net/http"

	"listTracker/internal/logger"
	"listTracker/internal/middleware"
	"listTracker/internal/service"

	"go.uber.org/zap"
)

// handleError отвечает бизнес-ошибкой с её кодом; всё остальное уходит как INTERNAL.
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithJSON(w, http.StatusInternalServerError,
		toPayload("error", service.CodeInternal),
		toPayload("message", "Внутренняя ошибка сервера"),
		toPayload("details", map[string]any{"request_id": middleware.GetRequestID(r.Context())}),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeIndexConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// badRequest отвечает ошибкой валидации, найденной до вызова сервиса.
func badRequest(w http.ResponseWriter, r *http.Request, field, reason string) {
	logger.Warn("HTTP: Ошибка валидации",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("field", field),
		zap.String("error", reason),
		zap.String("client_ip", r.RemoteAddr))

	busErr := service.NewValidationError(field, reason)
	responseWithJSON(w, http.StatusBadRequest,
		toPayload("error", busErr.Code),
		toPayload("message", busErr.Message),
		toPayload("details", busErr.Details),
	)
}
