package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"belgeno/internal/core/apperror"
	"belgeno/internal/infrastructure/http/v1/dto"
	"belgeno/pkg/logger"
)

// exhaustedMessage is what clients see when no free number was found.
const exhaustedMessage = "could not create document number, please retry"

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			message := appErr.Message
			if appErr.Code == apperror.CodeNumberExhausted {
				message = exhaustedMessage
			}

			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.Code,
				Message: message,
				Details: appErr.Details,
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{
				"request_id": c.GetString(ctxRequestID),
			},
		})
	}
}
