package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ecosphere/internal/app/models/dto"
)

// HandleBindingError writes the 400 response for a failed ShouldBind call
func HandleBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}

// BindJSON binds the JSON body into obj and writes the error response on failure
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		HandleBindingError(c, err)
		return false
	}
	return true
}

// Bind binds the body according to its content type (JSON or form)
func Bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		HandleBindingError(c, err)
		return false
	}
	return true
}
