package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/domain"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/orchestrator"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/repo"
	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/steps"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotRetryable   ErrorCode = "NOT_RETRYABLE"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeCancelled      ErrorCode = "CANCELLED"
	ErrCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrCodeMethodNotAllow ErrorCode = "METHOD_NOT_ALLOWED"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Missing — отсутствующие поля конфигурации (для VALIDATION_ERROR).
	Missing []string `json:"missing,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку оркестратора или репозитория в HTTP ответ.
// Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code:    ErrCodeValidation,
			Message: err.Error(),
			Missing: verr.Missing,
		}})

	case errors.Is(err, orchestrator.ErrNotRetryable):
		Error(w, http.StatusBadRequest, ErrCodeNotRetryable, err.Error())

	case errors.Is(err, domain.ErrUnknownStep),
		errors.Is(err, domain.ErrUnknownChannel),
		errors.Is(err, steps.ErrServiceNotFound):
		BadRequest(w, err.Error())

	case errors.Is(err, repo.ErrNotFound),
		errors.Is(err, orchestrator.ErrHistoryDisabled):
		NotFound(w, "execution not found")

	case errors.Is(err, orchestrator.ErrCancelled):
		Error(w, http.StatusServiceUnavailable, ErrCodeCancelled, "request cancelled before completion")

	default:
		InternalError(w, logger, err)
	}
	return true
}
