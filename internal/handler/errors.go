package handler

import (
	"net/http"

	"stockdesk/internal/apperror"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindUnauthorized:    http.StatusUnauthorized,
	apperror.KindForbidden:       http.StatusForbidden,
	apperror.KindNotFound:        http.StatusNotFound,
	apperror.KindInvalidArgument: http.StatusBadRequest,
	apperror.KindConflict:        http.StatusConflict,
	apperror.KindUnavailable:     http.StatusServiceUnavailable,
	apperror.KindInternal:        http.StatusInternalServerError,
}

// writeError renders err in the response envelope. The raw error is attached to the
// gin context for the access log and never written to the client.
func writeError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	_ = c.Error(err)

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if len(appErr.Shortages) > 0 {
		c.JSON(status, response.ErrorWithData(status, appErr.Message, map[string]interface{}{
			"shortages": appErr.Shortages,
		}))
		return
	}
	c.JSON(status, response.Error(status, appErr.Message))
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
