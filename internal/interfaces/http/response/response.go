package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps err onto the error taxonomy and writes {code, message}.
// Errors outside the taxonomy become INTERNAL_ERROR; server-side failures
// are logged with their cause.
func Error(c *gin.Context, err error) {
	appErr, ok := domainerrors.As(err)
	if !ok {
		appErr = domainerrors.InternalError(err)
	}

	if appErr.Status >= 500 && c.Request != nil {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("code", appErr.Code),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	Abort(c, appErr.Status, appErr.Code, appErr.Error())
}

// Abort writes {code, message} with status and stops the handler chain
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
