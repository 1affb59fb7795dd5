package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
	"github.com/fedro86/almost-a-cms/internal/pkg/response"
	"github.com/fedro86/almost-a-cms/internal/service"
)

const (
	AssetUploadMessage = "Asset uploaded"

	// room for multipart boundaries and the name field on top of the file itself
	multipartOverhead = 64 << 10
)

type AssetHandler struct {
	assets *service.AssetService
}

func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// Upload takes a multipart "file" part and an optional "name" field; without
// a name the client's file name is used.
func (h *AssetHandler) Upload(c *gin.Context) {
	limit := h.assets.MaxBytes() + multipartOverhead
	if c.Request.ContentLength > limit {
		handleError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: upload exceeds %d bytes", appErr.ErrTooLarge, h.assets.MaxBytes()))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	file, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			handleError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: upload exceeds %d bytes", appErr.ErrTooLarge, h.assets.MaxBytes()))
			return
		}
		handleError(c, http.StatusBadRequest, fmt.Errorf("%w: file is required: %w", appErr.ErrInvalidData, err))
		return
	}
	name := c.PostForm("name")
	if name == "" {
		name = filepath.Base(file.Filename)
	}
	opened, err := file.Open()
	if err != nil {
		handleError(c, http.StatusInternalServerError, fmt.Errorf("%w: open upload: %w", appErr.ErrIO, err))
		return
	}
	defer opened.Close()

	asset, err := h.assets.Upload(c.Request.Context(), name, opened, file.Size)
	if err != nil {
		handleError(c, uploadStatus(err), err)
		return
	}
	response.SuccessWith(c, http.StatusCreated, gin.H{"message": AssetUploadMessage, "asset": asset})
}

func (h *AssetHandler) List(c *gin.Context) {
	assets, err := h.assets.List(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}
	response.SuccessWith(c, http.StatusOK, gin.H{"assets": assets})
}

// Get serves an image. SVG may carry script, so the page is sandboxed.
func (h *AssetHandler) Get(c *gin.Context) {
	rc, asset, err := h.assets.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, fetchStatus(err), err)
		return
	}
	defer rc.Close()
	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'none'; style-src 'unsafe-inline'; sandbox",
		"Cache-Control":           "no-cache",
	}
	c.DataFromReader(http.StatusOK, -1, asset.ContentType, rc, headers)
}

func uploadStatus(err error) int {
	switch appErr.KindOf(err) {
	case appErr.KindInvalidName, appErr.KindInvalidData:
		return http.StatusBadRequest
	case appErr.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
