package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/middleware"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
	"github.com/fedro86/almost-a-cms/internal/pkg/response"
)

func handleError(c *gin.Context, status int, err error) {
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("kind", string(appErr.KindOf(err))),
		zap.Error(err),
	)
	response.Error(c, status, err)
}

func fetchStatus(err error) int {
	switch appErr.KindOf(err) {
	case appErr.KindInvalidName:
		return http.StatusBadRequest
	case appErr.KindNotFound:
		return http.StatusNotFound
	case appErr.KindInvalidData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
