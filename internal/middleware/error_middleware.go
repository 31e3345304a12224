package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/logger"
)

// errorMessage prefers the message of a CustomError over the sentinel text
func errorMessage(err error, fallback string) (string, string) {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		return ce.Error(), ce.Field
	}
	if fallback != "" {
		return fallback, ""
	}
	return err.Error(), ""
}

// StatusFor maps an error onto its HTTP status
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status := StatusFor(err)

	var detail *dto.ErrorDetail
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		msg, field := errorMessage(err, "")
		detail = dto.NewErrorDetail(dto.ErrorCodeValidationFailed, msg).WithField(field)

	case apperrors.KindUnauthenticated:
		code := dto.ErrorCodeUnauthorized
		msg := "Authentication required"
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			code, msg = dto.ErrorCodeInvalidCredentials, "Invalid credentials"
		case errors.Is(err, apperrors.ErrTokenExpired):
			code, msg = dto.ErrorCodeExpiredToken, "Token expired"
		case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
			code, msg = dto.ErrorCodeInvalidToken, "Invalid token"
		case errors.Is(err, apperrors.ErrTokenNotFound):
			code, msg = dto.ErrorCodeTokenNotFound, "Token not found"
		case errors.Is(err, apperrors.ErrAccountDisabled):
			code, msg = dto.ErrorCodeAccountDisabled, "Account is disabled"
		}
		detail = dto.NewErrorDetail(code, msg)

	case apperrors.KindForbidden:
		msg, _ := errorMessage(err, "Permission denied")
		detail = dto.NewErrorDetail(dto.ErrorCodeForbidden, msg)

	case apperrors.KindNotFound:
		msg, _ := errorMessage(err, "Resource not found")
		detail = dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, msg)

	case apperrors.KindConflict:
		msg, _ := errorMessage(err, "Resource already exists")
		detail = dto.NewErrorDetail(dto.ErrorCodeConflict, msg)

	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		detail = dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}
