package response

import (
	"github.com/gin-gonic/gin"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Body struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorBody always carries message, even when the error text is empty.
type ErrorBody struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Kind    appErr.Kind `json:"kind,omitempty"`
}

// Success writes the success envelope with a fixed message.
func Success(c *gin.Context, code int, message string) {
	c.JSON(code, Body{Status: StatusSuccess, Message: message})
}

// SuccessWith merges extra fields into the success envelope.
func SuccessWith(c *gin.Context, code int, fields gin.H) {
	out := gin.H{"status": StatusSuccess}
	for k, v := range fields {
		if k == "status" {
			continue
		}
		out[k] = v
	}
	c.JSON(code, out)
}

// Error writes the error envelope carrying the raw error text and its kind.
func Error(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, newErrorBody(err))
}

func newErrorBody(err error) ErrorBody {
	body := ErrorBody{Status: StatusError, Kind: appErr.KindOf(err)}
	if err != nil {
		body.Message = err.Error()
	}
	return body
}
