package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/survey-playground/internal/domain"
)

const internalErrorMessage = "Internal server error"

// Envelope is the body of every survey endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func OKMessage(c echo.Context, msg string, payload any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg, Data: payload})
}

func Created(c echo.Context, msg string, payload any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: msg, Data: payload})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "Bad request", slog.String("error", msg))
	return c.JSON(http.StatusBadRequest, Envelope{Error: msg})
}

// Error responds with the status matching the class of err.
func Error(c echo.Context, err error) error {
	status, msg := Status(err)
	trace.SpanFromContext(c.Request().Context()).RecordError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", slog.String("error", err.Error()))
	}
	return c.JSON(status, Envelope{Error: msg})
}

// Status maps err to an HTTP status and the message shown to the client.
func Status(err error) (int, string) {
	var validationErr domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}
	var notFoundErr domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, notFoundErr.Error()
	}
	var generationErr domain.GenerationError
	if errors.As(err, &generationErr) {
		return http.StatusInternalServerError, generationErr.Message
	}
	var upstreamErr domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadRequest, upstreamErr.Error()
	}
	return http.StatusInternalServerError, internalErrorMessage
}
