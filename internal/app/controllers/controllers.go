package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/helpers"
)

// errUnauthenticated is returned when a protected handler runs without a user in context
var errUnauthenticated = apperrors.ErrUnauthorized

// idParam reads a positive ID path parameter, writing a 400 when it is malformed
func idParam(ctx *gin.Context, name string) (int64, bool) {
	id, ok := helpers.ParseIDParam(ctx, name)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(name, "Invalid "+name))
	}
	return id, ok
}
