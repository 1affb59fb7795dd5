package handler

import (
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
	"github.com/fedro86/almost-a-cms/internal/pkg/response"
	"github.com/fedro86/almost-a-cms/internal/service"
)

const (
	SaveSuccessMessage       = "File saved and index.html regenerated"
	RegenerateSuccessMessage = "index.html regenerated"

	maxBodyBytes = 8 << 20
)

type EditHandler struct {
	edits *service.EditService
	pages *template.Template
}

func NewEditHandler(edits *service.EditService) *EditHandler {
	return &EditHandler{edits: edits, pages: loadPages()}
}

type editView struct {
	Name string
	Data string
}

func (h *EditHandler) Landing(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{Template: h.pages, Name: landingPage})
}

func (h *EditHandler) Get(c *gin.Context) {
	doc, err := h.edits.Fetch(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, fetchStatus(err), err)
		return
	}
	c.Render(http.StatusOK, render.HTML{
		Template: h.pages,
		Name:     editPage,
		Data:     editView{Name: doc.Name, Data: doc.Content},
	})
}

// Save reports every failure with status 500; the kind field tells a
// parse error from a storage or regeneration error.
func (h *EditHandler) Save(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		handleError(c, http.StatusInternalServerError, fmt.Errorf("%w: read request body: %w", appErr.ErrIO, err))
		return
	}
	if err := h.edits.Update(c.Request.Context(), c.Param("name"), body); err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, SaveSuccessMessage)
}

func (h *EditHandler) List(c *gin.Context) {
	names, err := h.edits.List(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}
	response.SuccessWith(c, http.StatusOK, gin.H{"documents": names})
}

func (h *EditHandler) Regenerate(c *gin.Context) {
	result, err := h.edits.Regenerate(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}
	response.SuccessWith(c, http.StatusOK, gin.H{"message": RegenerateSuccessMessage, "result": result})
}
