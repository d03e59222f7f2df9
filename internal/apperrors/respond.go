package apperrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var statusByKind = map[Kind]int{
	KindNotFound:        http.StatusNotFound,
	KindForbidden:       http.StatusForbidden,
	KindInvalidState:    http.StatusBadRequest,
	KindInvalidArgument: http.StatusBadRequest,
	KindUnauthenticated: http.StatusUnauthorized,
	KindConflict:        http.StatusConflict,
	KindInternal:        http.StatusInternalServerError,
}

// Respond maps an error to its HTTP status and writes the uniform
// {"message": ...} body. Unexpected errors are logged and surfaced as a
// generic 500 with no internal detail.
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}

	status := statusByKind[appErr.Kind]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("unhandled error")
		c.JSON(status, gin.H{"message": "An internal error occurred."})
		return
	}

	c.JSON(status, gin.H{"message": appErr.Message})
}

// Status returns the HTTP status an error would be mapped to.
func Status(err error) int {
	if appErr, ok := As(err); ok {
		if s := statusByKind[appErr.Kind]; s != 0 {
			return s
		}
	}
	return http.StatusInternalServerError
}
