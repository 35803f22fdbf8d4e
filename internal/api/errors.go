package api

import (
	"errors"
	"net/http"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error *apperr.Error `json:"error"`
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with the structured error payload.
// Errors outside the taxonomy are logged and reported as INTERNAL.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(statusOf(appErr.Kind), errorResponse{Error: appErr})
		return
	}

	util.GetLogger().Error("Unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(ctxRequestID)),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: &apperr.Error{
		Code:    "INTERNAL",
		Message: "internal server error",
	}})
}

// bindJSON decodes the body into dst, writing a validation error on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperr.FromValidator(err))
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, apperr.FieldValidation(map[string]string{name: "must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}
