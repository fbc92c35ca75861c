package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageNotFound            = "not found"
	MessageInternalServerError = "internal server error"
)

// Envelope is the body of every response.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func success(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Status: fiber.StatusOK, Message: MessageOK, Data: data})
}

func reply(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Status: status, Message: message, Data: data})
}

// AppError carries the status and client-facing message of a failed request.
type AppError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func badRequest(message string, cause error) *AppError {
	return &AppError{StatusCode: fiber.StatusBadRequest, Message: message, Cause: cause}
}

// errorHandler renders handler errors as envelopes. Server-side causes are
// logged and never echoed to the client.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status, msg := fiber.StatusInternalServerError, MessageInternalServerError

		var appErr *AppError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status, msg = appErr.StatusCode, appErr.Message
		case errors.As(err, &fiberErr):
			status, msg = fiberErr.Code, fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			status, msg = fiber.StatusInternalServerError, MessageInternalServerError
		}
		if msg == "" {
			msg = MessageBadRequest
		}
		return reply(c, status, msg, nil)
	}
}
