package handlers

import (
	"errors"

	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/lists"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorHandler maps domain errors to HTTP statuses. Server errors are logged
// and their details kept out of the response.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		resp := ErrorResponse{Error: true, Message: "Internal server error"}

		var fe *fiber.Error
		var ve *lists.ValidationError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			resp.Message = fe.Message
		case errors.As(err, &ve):
			code = fiber.StatusBadRequest
			resp.Message = ve.Error()
			resp.Field = ve.Field
		case errors.Is(err, lists.ErrNotFound):
			code = fiber.StatusNotFound
			resp.Message = err.Error()
		case errors.Is(err, controllers.ErrNotAuthenticated):
			code = fiber.StatusUnauthorized
			resp.Message = "sign in to sync lists"
		case errors.Is(err, controllers.ErrMissingDevice), errors.Is(err, controllers.ErrUnknownCSVFormat):
			code = fiber.StatusBadRequest
			resp.Message = err.Error()
		}

		if code >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("Unhandled server error")
		}

		return c.Status(code).JSON(resp)
	}
}

func badRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
